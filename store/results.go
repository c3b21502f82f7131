package store

// QueryResult is the SPARQL 1.1 JSON results document.
type QueryResult struct {
	Head    Head    `json:"head"`
	Boolean *bool   `json:"boolean,omitempty"`
	Results Results `json:"results"`
}

// Head lists the projected variables.
type Head struct {
	Vars []string `json:"vars"`
}

// Results carries one binding set per solution row.
type Results struct {
	Bindings []map[string]Binding `json:"bindings"`
}

// Binding is one variable's bound term.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Var extracts a variable's values across all rows, skipping rows where it
// is unbound.
func (r *QueryResult) Var(name string) []string {
	values := make([]string, 0, len(r.Results.Bindings))
	for _, row := range r.Results.Bindings {
		if b, ok := row[name]; ok {
			values = append(values, b.Value)
		}
	}
	return values
}
