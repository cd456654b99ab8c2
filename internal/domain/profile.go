package domain

import (
	"maps"
	"time"
)

const (
	ProfileKeyEmail     = "email"
	ProfileKeyIcon      = "icon"
	ProfileKeyCreatedAt = "created_at"
)

// Profile is the per-identity attribute document. Known attributes are typed,
// everything else is kept in Extra so it survives a round trip.
type Profile struct {
	Email     *string
	Icon      *string
	CreatedAt *time.Time
	Extra     map[string]any
}

func ProfileFromAttributes(attrs map[string]any) Profile {
	var p Profile
	for k, v := range attrs {
		switch k {
		case ProfileKeyEmail:
			if s, ok := v.(string); ok {
				p.Email = &s
				continue
			}
		case ProfileKeyIcon:
			if s, ok := v.(string); ok {
				p.Icon = &s
				continue
			}
		case ProfileKeyCreatedAt:
			if t, ok := parseProfileTime(v); ok {
				p.CreatedAt = &t
				continue
			}
		}

		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return p
}

// Attributes flattens the profile back into a document.
func (p Profile) Attributes() map[string]any {
	out := make(map[string]any, len(p.Extra)+3)
	maps.Copy(out, p.Extra)
	if p.Email != nil {
		out[ProfileKeyEmail] = *p.Email
	}
	if p.Icon != nil {
		out[ProfileKeyIcon] = *p.Icon
	}
	if p.CreatedAt != nil {
		out[ProfileKeyCreatedAt] = p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// ProfileUpdate holds the attributes a user may change. Nil fields are left as is.
type ProfileUpdate struct {
	Email *string
	Icon  *string
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Email == nil && u.Icon == nil
}

func parseProfileTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
