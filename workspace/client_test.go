package workspace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(h http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(h)
	c := NewClient("secret-token")
	c.BaseURL = srv.URL
	c.HTTP = srv.Client()
	return c, srv
}

func TestQueryDrainsCursorsAndSkipsArchived(t *testing.T) {
	var bodies []map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Notion-Version"); got == "" {
			t.Error("Notion-Version header missing")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, body)

		if body["start_cursor"] == nil {
			w.Write([]byte(`{
				"results": [
					{"id": "rec-1", "properties": {"AgentID": {"type": "rich_text", "rich_text": [{"plain_text": "A001"}]}}},
					{"id": "rec-2", "archived": true, "properties": {}}
				],
				"has_more": true,
				"next_cursor": "c2"
			}`))
			return
		}
		w.Write([]byte(`{
			"results": [
				{"id": "rec-3", "properties": {"FeeRate": {"type": "number", "number": 0.7}}}
			],
			"has_more": false
		}`))
	})
	defer srv.Close()

	recs, err := c.Query(context.Background(), "db1", Filter{Eq("AgentID", Text("A001"))})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2 across both pages minus the archived one", len(recs))
	}
	if recs[0].ID != "rec-1" || recs[0].Props.Text("AgentID") != "A001" {
		t.Errorf("first record = %+v", recs[0])
	}
	if n, ok := recs[1].Props.Number("FeeRate"); !ok || n != 0.7 {
		t.Errorf("FeeRate = %v %v", n, ok)
	}

	if len(bodies) != 2 {
		t.Fatalf("requests = %d, want 2", len(bodies))
	}
	if bodies[1]["start_cursor"] != "c2" {
		t.Errorf("second request cursor = %v, want c2", bodies[1]["start_cursor"])
	}
	filter, _ := bodies[0]["filter"].(map[string]any)
	if filter["property"] != "AgentID" {
		t.Errorf("filter = %v", bodies[0]["filter"])
	}
}

func TestCreateEncodesEmptyValues(t *testing.T) {
	var body map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/pages" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{"id": "rec-9"}`))
	})
	defer srv.Close()

	id, err := c.Create(context.Background(), "db1", Properties{
		"Name":   Title("Alpha"),
		"Remark": Text(""),
		"Agent":  Relation(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "rec-9" {
		t.Errorf("id = %q", id)
	}

	props, _ := body["properties"].(map[string]any)
	// An empty text clears the property; the key must be present with an
	// empty array, not dropped.
	remark, ok := props["Remark"].(map[string]any)
	if !ok {
		t.Fatal("Remark missing from payload")
	}
	if rt, ok := remark["rich_text"].([]any); !ok || len(rt) != 0 {
		t.Errorf("Remark rich_text = %v, want empty array", remark["rich_text"])
	}
	agent, ok := props["Agent"].(map[string]any)
	if !ok {
		t.Fatal("Agent missing from payload")
	}
	if rel, ok := agent["relation"].([]any); !ok || len(rel) != 0 {
		t.Errorf("Agent relation = %v, want empty array", agent["relation"])
	}
}

func TestArchive(t *testing.T) {
	var body map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/pages/rec-1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	if err := c.Archive(context.Background(), "rec-1"); err != nil {
		t.Fatal(err)
	}
	if body["archived"] != true {
		t.Errorf("body = %v, want archived true", body)
	}
}

func TestGetSchema(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "db1",
			"properties": {
				"Name": {"id": "title", "type": "title", "title": {}},
				"FeeRate": {"id": "p1", "type": "number", "number": {"format": "number"}},
				"Summary": {"id": "p2", "type": "relation", "relation": {"database_id": "db2", "type": "dual_property", "dual_property": {}}},
				"RakeSum": {"id": "p3", "type": "rollup", "rollup": {"relation_property_name": "Details", "rollup_property_name": "Rake", "function": "sum"}},
				"Created": {"id": "p4", "type": "created_time"}
			}
		}`))
	})
	defer srv.Close()

	schema, err := c.GetSchema(context.Background(), "db1")
	if err != nil {
		t.Fatal(err)
	}
	if got := schema["Name"].Kind; got != KindTitle {
		t.Errorf("Name kind = %v", got)
	}
	if got := schema["FeeRate"].Kind; got != KindNumber {
		t.Errorf("FeeRate kind = %v", got)
	}
	s := schema["Summary"]
	if s.Kind != KindDualRelation || s.Target != "db2" {
		t.Errorf("Summary = %+v", s)
	}
	ru := schema["RakeSum"]
	if ru.Kind != KindRollup || ru.RollupRelation != "Details" || ru.RollupProperty != "Rake" || ru.RollupFunction != "sum" {
		t.Errorf("RakeSum = %+v", ru)
	}
	// Unmanaged property types decode without error.
	if _, ok := schema["Created"]; !ok {
		t.Error("unmanaged property dropped")
	}
}

func TestUpdateSchema(t *testing.T) {
	var body map[string]any
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/databases/db1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(`{}`))
	})
	defer srv.Close()

	err := c.UpdateSchema(context.Background(), "db1", SchemaEdits{
		Renames: map[string]string{"Fee": "Fee_old"},
		Adds: []PropertyDef{
			{Name: "FeeRate", Kind: KindNumber},
			{Name: "Summary", Kind: KindDualRelation, Target: "db2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	props, _ := body["properties"].(map[string]any)
	// A rename addresses the property by its current name and carries the
	// new one.
	rename, _ := props["Fee"].(map[string]any)
	if rename["name"] != "Fee_old" {
		t.Errorf("rename edit = %v", rename)
	}
	added, _ := props["FeeRate"].(map[string]any)
	if added["number"] == nil {
		t.Errorf("FeeRate add = %v", added)
	}
	summary, _ := props["Summary"].(map[string]any)
	rel, _ := summary["relation"].(map[string]any)
	if rel["database_id"] != "db2" || rel["type"] != "dual_property" {
		t.Errorf("Summary relation config = %v", rel)
	}
}

func TestErrorSurfacesAPIMessage(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status": 400, "code": "validation_error", "message": "body failed validation"}`))
	})
	defer srv.Close()

	err := c.Update(context.Background(), "rec-1", Properties{"Name": Title("x")})
	if err == nil {
		t.Fatal("want error")
	}
	for _, want := range []string{"validation_error", "body failed validation"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("err %q does not mention %q", err, want)
		}
	}
}
