package vocab

import (
	"fmt"
	"os"
	"path/filepath"

	"hishab/internal/logging"

	"gopkg.in/yaml.v3"
)

// fileFormat is the YAML shape of a vocabulary override file.
type fileFormat struct {
	ExpenseCategories []Entry `yaml:"expense_categories"`
	IncomeSources     []Entry `yaml:"income_sources"`
}

// Store loads vocabulary overrides from a YAML file and merges them over the
// built-in tables. A missing file is not an error; the defaults apply as-is.
type Store struct {
	path   string
	logger logging.Logger
}

// NewStore creates a vocabulary store reading from path. An empty path means
// defaults only.
func NewStore(path string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Store{path: path, logger: logger}
}

// Load returns the expense and income vocabularies, with any file overrides
// merged over the defaults.
func (s *Store) Load() (expense, income Vocabulary, err error) {
	expense = DefaultExpenseCategories()
	income = DefaultIncomeSources()

	if s.path == "" {
		return expense, income, nil
	}

	path, findErr := s.findVocabFile(s.path)
	if findErr != nil {
		if os.IsNotExist(findErr) {
			s.logger.Warn("Vocabulary file not found, using built-in tables",
				logging.Field{Key: "path", Value: s.path})
			return expense, income, nil
		}
		return expense, income, fmt.Errorf("error resolving vocabulary file: %w", findErr)
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return expense, income, fmt.Errorf("error reading vocabulary file: %w", readErr)
	}

	var overrides fileFormat
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return expense, income, fmt.Errorf("error parsing vocabulary file: %w", err)
	}

	expense = expense.Merge(Vocabulary{Entries: overrides.ExpenseCategories})
	income = income.Merge(Vocabulary{Entries: overrides.IncomeSources})

	s.logger.Debug("Loaded vocabulary overrides",
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "expense_entries", Value: len(overrides.ExpenseCategories)},
		logging.Field{Key: "income_entries", Value: len(overrides.IncomeSources)})

	return expense, income, nil
}

// findVocabFile looks for the file in standard locations when the configured
// path is relative.
func (s *Store) findVocabFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".hishab", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}
