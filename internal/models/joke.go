package models

// Joke is one held joke. ID and Text never change after the joke is fetched.
type Joke struct {
	ID     string `json:"id" mapstructure:"id"`
	Text   string `json:"text" mapstructure:"joke"`
	Votes  int    `json:"votes"`
	Locked bool   `json:"locked"`
}

// View is the render-time derivation of a joke list.
type View struct {
	Jokes        []Joke `json:"jokes"`
	Target       int    `json:"target"`
	AllLocked    bool   `json:"all_locked"`
	StillLoading bool   `json:"still_loading"`
	Error        string `json:"error,omitempty"`
}
