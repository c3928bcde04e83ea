package yggdrasil

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ProfileProperty is one signed-or-plain wire property.
type ProfileProperty struct {
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
	Value     string `json:"value"`
}

// ProfileRepresentation is the client-facing shape of a profile.
type ProfileRepresentation struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties []ProfileProperty `json:"properties"`
}

// UserRepresentation is the optional user block login/refresh responses
// carry when the client asks for it.
type UserRepresentation struct {
	ID         string            `json:"id"`
	Properties []ProfileProperty `json:"properties"`
}

// TextureMetadata tags a skin with its player model; capes carry none.
type TextureMetadata struct {
	Model string `json:"model"`
}

// TextureInfo is one texture slot inside the textures payload.
type TextureInfo struct {
	Metadata *TextureMetadata `json:"metadata,omitempty"`
	URL      string           `json:"url"`
}

// TextureSet holds the optional skin and cape slots.
type TextureSet struct {
	Skin *TextureInfo `json:"skin,omitempty"`
	Cape *TextureInfo `json:"cape,omitempty"`
}

// ProfileTextures is the structure serialized and base64-encoded into the
// "textures" property, because the wire format represents textures as one
// opaque signed string rather than a nested object.
type ProfileTextures struct {
	ProfileID   string     `json:"profileId"`
	ProfileName string     `json:"profileName"`
	Textures    TextureSet `json:"textures"`
	Timestamp   int64      `json:"timestamp"`
}

// Encode serializes the payload into the opaque property value.
func (t ProfileTextures) Encode() string {
	raw, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// ProfilePresenter converts stored profiles into their wire representation.
// Pure transformation, no I/O; it runs outside the transaction.
type ProfilePresenter struct {
	baseURL string
	signer  *Signer
	logger  Logger
	now     func() time.Time
}

// NewProfilePresenter builds a presenter. texturesBaseURL is prepended to
// the hex content hash to form texture resource URLs.
func NewProfilePresenter(texturesBaseURL string, signer *Signer) *ProfilePresenter {
	return &ProfilePresenter{
		baseURL: texturesBaseURL,
		signer:  signer,
		logger:  defLogger{},
		now:     time.Now,
	}
}

func (p *ProfilePresenter) WithLogger(logger Logger) *ProfilePresenter {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithClock overrides the timestamp source embedded in texture payloads.
func (p *ProfilePresenter) WithClock(now func() time.Time) *ProfilePresenter {
	if now != nil {
		p.now = now
	}
	return p
}

// Present renders the base representation: wire id, display name, and the
// uploadableTextures property. Used for availableProfiles listings.
func (p *ProfilePresenter) Present(profile *Profile) ProfileRepresentation {
	return ProfileRepresentation{
		ID:   UUIDToHex(profile.UUID),
		Name: profile.DisplayName,
		Properties: []ProfileProperty{
			{
				Name:  "uploadableTextures",
				Value: UploadableWireValue(profile.Uploadable),
			},
		},
	}
}

// PresentWithTextures renders the full representation including the encoded
// textures property, signing every property when signing is enabled. Used
// for selectedProfile and profile queries.
func (p *ProfilePresenter) PresentWithTextures(profile *Profile) ProfileRepresentation {
	rep := p.Present(profile)
	rep.Properties = append(rep.Properties, ProfileProperty{
		Name:  "textures",
		Value: p.BuildTextures(profile).Encode(),
	})
	return p.sign(rep)
}

// PresentUser renders the user block: wire id plus an empty property list.
func (p *ProfilePresenter) PresentUser(user *User) UserRepresentation {
	return UserRepresentation{
		ID:         UUIDToHex(user.UUID),
		Properties: []ProfileProperty{},
	}
}

// BuildTextures assembles the textures payload from the profile's loaded
// skin and cape rows.
func (p *ProfilePresenter) BuildTextures(profile *Profile) ProfileTextures {
	payload := ProfileTextures{
		ProfileID:   UUIDToHex(profile.UUID),
		ProfileName: profile.DisplayName,
		Timestamp:   p.now().UnixMilli(),
	}

	if profile.Skin != nil {
		payload.Textures.Skin = &TextureInfo{
			Metadata: &TextureMetadata{Model: profile.Skin.Model},
			URL:      p.baseURL + hex.EncodeToString(profile.Skin.Hash),
		}
	}

	if profile.Cape != nil {
		payload.Textures.Cape = &TextureInfo{
			URL: p.baseURL + hex.EncodeToString(profile.Cape.Hash),
		}
	}

	return payload
}

func (p *ProfilePresenter) sign(rep ProfileRepresentation) ProfileRepresentation {
	if p.signer == nil || !p.signer.Enabled() {
		return rep
	}

	for i, prop := range rep.Properties {
		sig, err := p.signer.Sign([]byte(prop.Value))
		if err != nil {
			// Signing errors are a startup concern; per-request the
			// property simply goes out unsigned.
			p.logger.Error("property %q signing failed: %v", prop.Name, err)
			continue
		}
		rep.Properties[i].Signature = sig
	}

	return rep
}
