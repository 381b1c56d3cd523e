package flowrule

import (
	"github.com/osa030/karaokebox/internal/domain/queue"
	"github.com/osa030/karaokebox/internal/pkg/rawmap"
)

// Presets maps an archetype key (e.g. "office_party") to a settings bundle.
// Only the bundle's queue settings sub-object is read here.
type Presets map[string]map[string]any

// FromPreset normalizes the queue settings of the given archetype and infers the
// rule they match. ok is false when the archetype is unknown; the returned
// settings are then the catalog's balanced settings.
func (c Catalog) FromPreset(presets Presets, archetype string) (settings queue.Settings, ruleID string, ok bool) {
	if _, found := presets[archetype]; !found {
		return c.Resolve(Balanced), Balanced, false
	}

	sub, _ := presets.Section(archetype, "queue_settings")
	settings = queue.FromMap(sub)
	return settings, c.Infer(settings), true
}

// Section returns a sub-object of an archetype's bundle, such as "party_policy".
func (p Presets) Section(archetype, key string) (map[string]any, bool) {
	bundle, found := p[archetype]
	if !found {
		return nil, false
	}
	v, exists := rawmap.Canonicalize(bundle)[rawmap.SnakeCase(key)]
	if !exists {
		return nil, false
	}
	m := toStringMap(v)
	return m, m != nil
}

// toStringMap accepts both map[string]any and the map[any]any produced by some
// YAML decoders.
func toStringMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out
	default:
		return nil
	}
}
