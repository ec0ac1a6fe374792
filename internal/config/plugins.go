package config

import "github.com/udlcore/udl/internal/sourcing"

// normalizePlugins converts the raw decoded "plugins" list — each entry
// either a bare plugin-name string or a `{name, options}` map — into
// sourcing.ChildRef values (spec §6 "an options object form ({name,
// options}) passes options through to the plugin's onLoad hook").
func normalizePlugins(raw interface{}) []sourcing.ChildRef {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	refs := make([]sourcing.ChildRef, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			refs = append(refs, sourcing.ChildRef{Name: v})
		case map[string]interface{}:
			ref := sourcing.ChildRef{}
			if name, ok := v["name"].(string); ok {
				ref.Name = name
			}
			if opts, ok := v["options"].(map[string]interface{}); ok {
				ref.Options = opts
			}
			if ref.Name != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
