package rdf

// Triple is one RDF statement. Subject and Predicate are IRIs, either
// absolute or in the vocabulary's short "anamnesis:Name" form; expansion
// happens at serialization time. Object is an IRI (absolute or short form),
// an already-quoted literal, or a plain string that serializes as an
// escaped literal.
type Triple struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}
