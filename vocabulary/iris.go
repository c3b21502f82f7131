// Package vocabulary provides the IRI vocabulary for the Anamnesis
// conversation ontology.
package vocabulary

import "strings"

// Base IRI constants for the Anamnesis vocabulary
const (
	// AnamnesisBase is the root of every IRI this system mints.
	AnamnesisBase = "https://anamnesis.hyperpolymath.io"

	// OntologyNamespace holds classes and predicates.
	OntologyNamespace = AnamnesisBase + "/ontology#"

	// EntityNamespace holds minted entity IRIs (conversations, messages,
	// artifacts).
	EntityNamespace = AnamnesisBase + "/entity/"

	// Prefix is the short prefix that expands against OntologyNamespace.
	Prefix = "anamnesis"

	// RDFType is the standard rdf:type predicate.
	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// Class IRIs in short form. Short names render as "anamnesis:Name" and
// expand against OntologyNamespace at serialization time.
const (
	ClassConversation          = Prefix + ":Conversation"
	ClassHumanMessage          = Prefix + ":HumanMessage"
	ClassLLMMessage            = Prefix + ":LLMMessage"
	ClassArtifact              = Prefix + ":Artifact"
	ClassCodeArtifact          = Prefix + ":CodeArtifact"
	ClassDocumentationArtifact = Prefix + ":DocumentationArtifact"
	ClassConfigurationArtifact = Prefix + ":ConfigurationArtifact"
)

// Predicate IRIs in short form
const (
	PredPartOf         = Prefix + ":partOf"
	PredCreatedIn      = Prefix + ":createdIn"
	PredModifiedIn     = Prefix + ":modifiedIn"
	PredDiscusses      = Prefix + ":discusses"
	PredLifecycleState = Prefix + ":lifecycleState"
	PredContent        = Prefix + ":content"
	PredTimestamp      = Prefix + ":timestamp"
	PredName           = Prefix + ":name"
	PredPlatform       = Prefix + ":platform"
	PredSpeakerName    = Prefix + ":speakerName"
	PredModel          = Prefix + ":model"
	PredProvider       = Prefix + ":provider"
	PredLanguage       = Prefix + ":language"
	PredMemberOf          = Prefix + ":memberOf"
	PredContaminationRisk = Prefix + ":contaminationRisk"
)

// Lifecycle state resources. These four fixed IRIs are the only legal
// objects of lifecycleState edges.
const (
	StateCreatedIRI   = Prefix + ":Created"
	StateModifiedIRI  = Prefix + ":Modified"
	StateEvaluatedIRI = Prefix + ":Evaluated"
	StateRemovedIRI   = Prefix + ":Removed"
)

// IsAbsoluteIRI reports whether s is already a full http(s) IRI that must
// pass through serialization unchanged.
func IsAbsoluteIRI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Expand resolves a name to a full IRI. Absolute http(s) IRIs pass through
// unchanged; short colon-separated names ("anamnesis:Conversation") expand
// against OntologyNamespace. Anything else is returned unchanged and is the
// caller's problem.
func Expand(name string) string {
	if name == "" {
		return ""
	}
	if IsAbsoluteIRI(name) {
		return name
	}
	if prefix, local, ok := strings.Cut(name, ":"); ok && prefix == Prefix && local != "" {
		return OntologyNamespace + local
	}
	return name
}

// IsName reports whether s looks like an IRI this vocabulary can expand:
// either an absolute http(s) IRI or a short prefixed name.
func IsName(s string) bool {
	if IsAbsoluteIRI(s) {
		return true
	}
	prefix, local, ok := strings.Cut(s, ":")
	return ok && prefix == Prefix && local != ""
}

// ConversationIRI mints the entity IRI for a conversation
func ConversationIRI(conversationID string) string {
	return EntityNamespace + "conversation/" + conversationID
}

// MessageIRI mints the entity IRI for a message within a conversation
func MessageIRI(conversationID, messageID string) string {
	return EntityNamespace + "conversation/" + conversationID + "/message/" + messageID
}

// ArtifactIRI mints the entity IRI for an artifact within a conversation
func ArtifactIRI(conversationID, artifactID string) string {
	return EntityNamespace + "conversation/" + conversationID + "/artifact/" + artifactID
}

// CategoryIRI mints the entity IRI for a project category
func CategoryIRI(categoryID string) string {
	return EntityNamespace + "category/" + categoryID
}
