package sources

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reddmirror/reddmirror/app/database"
)

// Load reads the subscription registry file. A missing file is not an
// error: the registry is optional and subscriptions can be managed over
// the API instead.
func Load(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i := range file.Subscriptions {
		setDefaults(&file.Subscriptions[i])
		if err := validate(&file.Subscriptions[i]); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
	}

	return file.Subscriptions, nil
}

func setDefaults(s *Source) {
	if s.Kind == "" {
		s.Kind = database.SubscriptionKindSubreddit
	}
	if s.Title == "" {
		s.Title = s.Source
	}
}

func validate(s *Source) error {
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if s.Kind != database.SubscriptionKindSubreddit && s.Kind != database.SubscriptionKindRSS {
		return fmt.Errorf("unknown kind: %s", s.Kind)
	}
	return nil
}
