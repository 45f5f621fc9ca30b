// pkg/persona/schema.go
package persona

// Persona is the versioned set of style and instruction texts injected into
// every prompt sent to the completion provider.
type Persona struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Name        string `json:"name"`

	// Directive describes tone and register. It is appended to every prompt.
	Directive string `json:"directive"`

	IntentInstruction         string `json:"intentInstruction"`
	RecommendationInstruction string `json:"recommendationInstruction"`
	ConversationInstruction   string `json:"conversationInstruction"`

	// OutputTemplate lists the fields required per recommended restaurant.
	OutputTemplate string `json:"outputTemplate"`

	UnspecifiedLabel string      `json:"unspecifiedLabel"`
	LinkLabel        string      `json:"linkLabel"`
	Labels           FieldLabels `json:"labels"`
}

// FieldLabels names the preference fields in the structured-turn description.
type FieldLabels struct {
	Budget    string `json:"budget"`
	Location  string `json:"location"`
	Cuisine   string `json:"cuisine"`
	Situation string `json:"situation"`
}
