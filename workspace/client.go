package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
	pageSize       = 100
)

// Client talks to the workspace HTTP API. It is constructed once at
// process start and passed by reference into every component; there is no
// lazily-built singleton.
//
// The client does not retry: every transport or non-2xx failure surfaces
// as an error and the run aborts, which is safe to re-run.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Token   string
}

// NewClient returns a client authenticated with the integration token.
func NewClient(token string) *Client {
	return &Client{HTTP: http.DefaultClient, BaseURL: defaultBaseURL, Token: token}
}

type apiError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("%s %s: %s: %s (%s)", method, path, resp.Status, ae.Message, ae.Code)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// --- wire shapes ---

type richTextJSON struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type textContent struct {
	Content string `json:"content"`
}

type idJSON struct {
	ID string `json:"id"`
}

type propValueJSON struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Title    []richTextJSON `json:"title,omitempty"`
	RichText []richTextJSON `json:"rich_text,omitempty"`
	Number   *float64       `json:"number,omitempty"`
	Relation []idJSON       `json:"relation,omitempty"`
	Rollup   *rollupValue   `json:"rollup,omitempty"`
}

type rollupValue struct {
	Type   string   `json:"type"`
	Number *float64 `json:"number,omitempty"`
}

type pageJSON struct {
	ID         string                   `json:"id"`
	Archived   bool                     `json:"archived"`
	Properties map[string]propValueJSON `json:"properties"`
}

func plain(rt []richTextJSON) string {
	var s string
	for _, r := range rt {
		if r.PlainText != "" {
			s += r.PlainText
		} else if r.Text != nil {
			s += r.Text.Content
		}
	}
	return s
}

func rich(s string) []any {
	if s == "" {
		return []any{}
	}
	return []any{map[string]any{"type": "text", "text": map[string]string{"content": s}}}
}

func decodeRecord(p pageJSON) Record {
	props := make(Properties, len(p.Properties))
	for name, v := range p.Properties {
		switch v.Type {
		case "title":
			props[name] = Title(plain(v.Title))
		case "rich_text":
			props[name] = Text(plain(v.RichText))
		case "number":
			if v.Number != nil {
				props[name] = Number(*v.Number)
			}
		case "relation":
			ids := make([]string, 0, len(v.Relation))
			for _, r := range v.Relation {
				ids = append(ids, r.ID)
			}
			props[name] = Relation(ids...)
		case "rollup":
			if v.Rollup != nil && v.Rollup.Type == "number" && v.Rollup.Number != nil {
				props[name] = Value{Kind: KindRollup, Number: *v.Rollup.Number}
			}
		}
		// Other property types the engine never writes are skipped.
	}
	return Record{ID: p.ID, Archived: p.Archived, Props: props}
}

func encodeProps(props Properties) map[string]any {
	enc := make(map[string]any, len(props))
	for name, v := range props {
		switch v.Kind {
		case KindTitle:
			enc[name] = map[string]any{"title": rich(v.Text)}
		case KindRichText:
			enc[name] = map[string]any{"rich_text": rich(v.Text)}
		case KindNumber:
			enc[name] = map[string]any{"number": v.Number}
		case KindRelation, KindDualRelation:
			ids := make([]idJSON, 0, len(v.Relation))
			for _, id := range v.Relation {
				ids = append(ids, idJSON{ID: id})
			}
			enc[name] = map[string]any{"relation": ids}
		}
	}
	return enc
}

func encodeFilter(f Filter) any {
	conds := make([]any, 0, len(f))
	for _, c := range f {
		var body any
		switch c.Equals.Kind {
		case KindTitle:
			body = map[string]any{"property": c.Property, "title": map[string]any{"equals": c.Equals.Text}}
		case KindRichText:
			body = map[string]any{"property": c.Property, "rich_text": map[string]any{"equals": c.Equals.Text}}
		case KindNumber:
			body = map[string]any{"property": c.Property, "number": map[string]any{"equals": c.Equals.Number}}
		case KindRelation, KindDualRelation:
			var id string
			if len(c.Equals.Relation) > 0 {
				id = c.Equals.Relation[0]
			}
			body = map[string]any{"property": c.Property, "relation": map[string]any{"contains": id}}
		}
		conds = append(conds, body)
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return map[string]any{"and": conds}
}

// --- Store implementation ---

type queryResponse struct {
	Results    []pageJSON `json:"results"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor"`
}

// Query runs a filtered query and drains every continuation cursor before
// returning. An incomplete drain combined with a short page would make the
// Reconciler archive records that are still live, so partial reads are
// never surfaced.
func (c *Client) Query(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	var records []Record
	cursor := ""
	for {
		body := map[string]any{"page_size": pageSize}
		if len(filter) > 0 {
			body["filter"] = encodeFilter(filter)
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var resp queryResponse
		if err := c.do(ctx, http.MethodPost, "/databases/"+collection+"/query", body, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Results {
			if p.Archived {
				continue
			}
			records = append(records, decodeRecord(p))
		}
		if !resp.HasMore {
			return records, nil
		}
		cursor = resp.NextCursor
	}
}

func (c *Client) Create(ctx context.Context, collection string, props Properties) (string, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": collection},
		"properties": encodeProps(props),
	}
	var out idJSON
	if err := c.do(ctx, http.MethodPost, "/pages", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Update(ctx context.Context, id string, props Properties) error {
	body := map[string]any{"properties": encodeProps(props)}
	return c.do(ctx, http.MethodPatch, "/pages/"+id, body, nil)
}

// Archive soft-deletes the record. It stays in the store and can be
// restored by hand; the engine never hard-deletes anything.
func (c *Client) Archive(ctx context.Context, id string) error {
	body := map[string]any{"archived": true}
	return c.do(ctx, http.MethodPatch, "/pages/"+id, body, nil)
}

type propDefJSON struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Type     string          `json:"type,omitempty"`
	Title    *struct{}       `json:"title,omitempty"`
	RichText *struct{}       `json:"rich_text,omitempty"`
	Number   *numberConfig   `json:"number,omitempty"`
	Relation *relationConfig `json:"relation,omitempty"`
	Rollup   *rollupConfig   `json:"rollup,omitempty"`
}

type numberConfig struct {
	Format string `json:"format,omitempty"`
}

type relationConfig struct {
	DatabaseID     string    `json:"database_id"`
	Type           string    `json:"type,omitempty"`
	SingleProperty *struct{} `json:"single_property,omitempty"`
	DualProperty   *struct{} `json:"dual_property,omitempty"`
}

type rollupConfig struct {
	RelationPropertyName string `json:"relation_property_name"`
	RollupPropertyName   string `json:"rollup_property_name"`
	Function             string `json:"function"`
}

type databaseJSON struct {
	ID         string                 `json:"id"`
	Properties map[string]propDefJSON `json:"properties"`
}

func (c *Client) GetSchema(ctx context.Context, collection string) (Schema, error) {
	var db databaseJSON
	if err := c.do(ctx, http.MethodGet, "/databases/"+collection, nil, &db); err != nil {
		return nil, err
	}
	schema := make(Schema, len(db.Properties))
	for name, d := range db.Properties {
		def := PropertyDef{ID: d.ID, Name: name}
		switch d.Type {
		case "title":
			def.Kind = KindTitle
		case "rich_text":
			def.Kind = KindRichText
		case "number":
			def.Kind = KindNumber
		case "relation":
			def.Kind = KindRelation
			if d.Relation != nil {
				def.Target = d.Relation.DatabaseID
				if d.Relation.Type == "dual_property" {
					def.Kind = KindDualRelation
				}
			}
		case "rollup":
			def.Kind = KindRollup
			if d.Rollup != nil {
				def.RollupRelation = d.Rollup.RelationPropertyName
				def.RollupProperty = d.Rollup.RollupPropertyName
				def.RollupFunction = d.Rollup.Function
			}
		default:
			// Property types the engine does not manage are reported
			// verbatim so the evolver can leave them alone.
			def.Kind = KindRichText
		}
		schema[name] = def
	}
	return schema, nil
}

func encodeDef(d PropertyDef) propDefJSON {
	switch d.Kind {
	case KindTitle:
		return propDefJSON{Title: &struct{}{}}
	case KindRichText:
		return propDefJSON{RichText: &struct{}{}}
	case KindNumber:
		return propDefJSON{Number: &numberConfig{Format: "number"}}
	case KindRelation:
		return propDefJSON{Relation: &relationConfig{DatabaseID: d.Target, Type: "single_property", SingleProperty: &struct{}{}}}
	case KindDualRelation:
		return propDefJSON{Relation: &relationConfig{DatabaseID: d.Target, Type: "dual_property", DualProperty: &struct{}{}}}
	case KindRollup:
		return propDefJSON{Rollup: &rollupConfig{
			RelationPropertyName: d.RollupRelation,
			RollupPropertyName:   d.RollupProperty,
			Function:             d.RollupFunction,
		}}
	}
	return propDefJSON{}
}

// UpdateSchema applies one batch of edits. Renames address properties by
// their current name; the store keeps the underlying property id, so no
// data moves.
func (c *Client) UpdateSchema(ctx context.Context, collection string, edits SchemaEdits) error {
	if edits.Empty() {
		return nil
	}
	props := make(map[string]propDefJSON)
	for from, to := range edits.Renames {
		props[from] = propDefJSON{Name: to}
	}
	for _, d := range edits.Adds {
		props[d.Name] = encodeDef(d)
	}
	body := map[string]any{"properties": props}
	return c.do(ctx, http.MethodPatch, "/databases/"+collection, body, nil)
}
