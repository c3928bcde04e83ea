package yggdrasil

import (
	"time"

	"github.com/uptrace/bun"
)

// TokenStatus is the lifecycle state of an access token
type TokenStatus = string

const (
	// TokenAvailable is a live token usable for authentication
	TokenAvailable TokenStatus = "available"
	// TokenNeedRefresh is an aged token that must be refreshed before use
	TokenNeedRefresh TokenStatus = "need_refresh"
	// TokenInvalid is a permanently revoked token; the state is terminal
	TokenInvalid TokenStatus = "invalid"
)

// SkinModel is the player model a skin texture targets
type SkinModel = string

const (
	SkinModelDefault SkinModel = "default"
	SkinModelSlim    SkinModel = "slim"
)

// UploadableKind governs which texture slots a client may write for a profile
type UploadableKind = string

const (
	UploadableNone     UploadableKind = "none"
	UploadableSkinOnly UploadableKind = "skin"
	UploadableSkinCape UploadableKind = "skin_cape"
)

// UploadableWireValue renders the uploadableTextures property value, which is
// the exact literal game clients expect: "", "skin" or "skin,cape".
func UploadableWireValue(kind UploadableKind) string {
	switch kind {
	case UploadableSkinOnly:
		return "skin"
	case UploadableSkinCape:
		return "skin,cape"
	default:
		return ""
	}
}

// User is an account. Accounts are created out-of-band; this service only
// reads them.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Password      string     `bun:"password,notnull" json:"-"`
	UUID          []byte     `bun:"uuid,notnull,type:blob" json:"uuid,omitempty"`
	Profiles      []*Profile `bun:"rel:has-many,join:id=owner_id" json:"profiles,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Profile is an in-game identity owned by a User. A user may own several
// profiles; each profile has exactly one owner.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            int64          `bun:"id,pk,autoincrement" json:"id,omitempty"`
	DisplayName   string         `bun:"display_name,notnull,unique" json:"display_name,omitempty"`
	UUID          []byte         `bun:"uuid,notnull,type:blob" json:"uuid,omitempty"`
	OwnerID       int64          `bun:"owner_id,notnull" json:"owner_id,omitempty"`
	Owner         *User          `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	Uploadable    UploadableKind `bun:"uploadable_textures,notnull" json:"uploadable_textures,omitempty"`
	SkinID        *int64         `bun:"skin_id" json:"skin_id,omitempty"`
	Skin          *Texture       `bun:"rel:belongs-to,join:skin_id=id" json:"skin,omitempty"`
	CapeID        *int64         `bun:"cape_id" json:"cape_id,omitempty"`
	Cape          *Texture       `bun:"rel:belongs-to,join:cape_id=id" json:"cape,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Texture is an immutable skin or cape blob reference. Re-uploads replace the
// row, they never mutate it. Model is only meaningful for skins and stays
// empty for capes.
type Texture struct {
	bun.BaseModel `bun:"table:textures,alias:tex"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Hash          []byte     `bun:"hash,notnull" json:"hash,omitempty"`
	Model         SkinModel  `bun:"model" json:"model,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Token is an issued session credential. Created only on login/refresh;
// status is mutated only by TokenLifecycle. The profile binding is set at
// most once for the lifetime of the row.
type Token struct {
	bun.BaseModel `bun:"table:tokens,alias:tkn"`
	ID            int64       `bun:"id,pk,autoincrement" json:"id,omitempty"`
	AccessToken   string      `bun:"access_token,notnull,unique" json:"access_token,omitempty"`
	ClientToken   string      `bun:"client_token,notnull" json:"client_token,omitempty"`
	OwnerID       int64       `bun:"owner_id,notnull" json:"owner_id,omitempty"`
	Owner         *User       `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	ProfileID     *int64      `bun:"profile_id" json:"profile_id,omitempty"`
	Profile       *Profile    `bun:"rel:belongs-to,join:profile_id=id" json:"profile,omitempty"`
	Status        TokenStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Age reports how long ago the token was issued.
func (t *Token) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// AccountSetting overrides the process-wide token policy for one account.
// Durations are stored in seconds. Absence of a row means defaults apply.
type AccountSetting struct {
	bun.BaseModel  `bun:"table:account_settings,alias:ast"`
	UserID         int64 `bun:"user_id,pk" json:"user_id,omitempty"`
	MaxTokens      int64 `bun:"max_tokens,notnull" json:"max_tokens,omitempty"`
	NeedRefreshSec int64 `bun:"need_refresh_duration,notnull" json:"need_refresh_duration,omitempty"`
	InvalidSec     int64 `bun:"invalid_duration,notnull" json:"invalid_duration,omitempty"`
}

// Policy converts the stored override into an effective TokenPolicy.
func (s *AccountSetting) Policy() TokenPolicy {
	return TokenPolicy{
		MaxTokens:           s.MaxTokens,
		NeedRefreshDuration: time.Duration(s.NeedRefreshSec) * time.Second,
		InvalidDuration:     time.Duration(s.InvalidSec) * time.Second,
	}
}
