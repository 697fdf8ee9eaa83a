package dashboard

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator checks widget configurations against a JSON schema
// derived from the currently loaded site map. Schemas are compiled once
// per topology and reused until the site map changes.
type ConfigValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewConfigValidator builds a validator backed by jsonschema v5.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the widget references a known site, a device belonging
// to that site, a known metric, and a selectable time range.
func (v *ConfigValidator) Validate(siteMap SiteMap, widget Widget) error {
	schema, err := v.schemaFor(siteMap)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"site":       widget.Site,
		"device":     widget.Device,
		"metric":     string(widget.Metric),
		"time_range": int(widget.TimeRange),
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("dashboard: widget configuration failed validation: %w", err)
	}
	// Device membership is site-scoped; JSON schema enums cannot express
	// the cross-field constraint, so it is checked here.
	if !siteMap.HasDevice(widget.Site, widget.Device) {
		return fmt.Errorf("dashboard: device %q is not part of site %q", widget.Device, widget.Site)
	}
	return nil
}

// WidgetSchema returns the JSON schema document for a topology. Exposed
// so transports can serve it to form clients.
func WidgetSchema(siteMap SiteMap) map[string]any {
	sites := make([]any, 0, len(siteMap)+1)
	seen := map[string]bool{}
	for site := range siteMap {
		seen[site] = true
	}
	if !seen[AllSites] {
		sites = append(sites, AllSites)
	}
	names := make([]string, 0, len(siteMap))
	for site := range siteMap {
		names = append(names, site)
	}
	sort.Strings(names)
	for _, site := range names {
		sites = append(sites, site)
	}
	ranges := make([]any, 0, len(TimeRanges))
	for _, r := range TimeRanges {
		ranges = append(ranges, int(r))
	}
	return map[string]any{
		"type":     "object",
		"required": []any{"site", "metric"},
		"properties": map[string]any{
			"site":       map[string]any{"enum": sites},
			"device":     map[string]any{"type": "string", "minLength": 1},
			"metric":     map[string]any{"enum": []any{string(MetricClients), string(MetricHealth), string(MetricState)}},
			"time_range": map[string]any{"enum": ranges},
		},
	}
}

func (v *ConfigValidator) schemaFor(siteMap SiteMap) (*jsonschema.Schema, error) {
	key := siteMapHash(siteMap)
	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	doc := WidgetSchema(siteMap)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal widget schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	name := "widget-" + key + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load widget schema: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile widget schema: %w", err)
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// siteMapHash returns a deterministic key for a topology.
func siteMapHash(siteMap SiteMap) string {
	if len(siteMap) == 0 {
		return "empty"
	}
	names := make([]string, 0, len(siteMap))
	for site := range siteMap {
		names = append(names, site)
	}
	sort.Strings(names)
	h := sha1.New()
	for _, site := range names {
		h.Write([]byte(site))
		h.Write([]byte{0})
		for _, device := range siteMap[site] {
			h.Write([]byte(device))
			h.Write([]byte{1})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
