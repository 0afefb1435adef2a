package sources

// Source is one operator-configured subscription entry.
type Source struct {
	Source string `yaml:"source"`
	Kind   string `yaml:"kind"`
	Title  string `yaml:"title"`
}

type sourcesFile struct {
	Subscriptions []Source `yaml:"subscriptions"`
}
