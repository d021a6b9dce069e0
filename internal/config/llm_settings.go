// internal/config/llm_settings.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Corphon/CurriculumDesigner/internal/utils"
)

// LLMSettings is the user-editable provider configuration persisted in
// DATA_DIR/config.json.
type LLMSettings struct {
	Provider string            `json:"llm_provider"`
	Config   map[string]string `json:"llm_config"`
}

func (s LLMSettings) clone() LLMSettings {
	out := LLMSettings{Provider: s.Provider, Config: make(map[string]string, len(s.Config))}
	for k, v := range s.Config {
		out.Config[k] = v
	}
	return out
}

// Manager owns the LLM settings overlay. The api_key entry is encrypted at
// rest and decrypted in memory.
type Manager struct {
	mu      sync.RWMutex
	path    string
	secret  string
	current LLMSettings
}

// NewManager seeds settings from the environment and merges config.json when
// present. Values from the file win over the environment.
func NewManager(base *Config) (*Manager, error) {
	m := &Manager{
		path:   filepath.Join(base.DataDir, "config.json"),
		secret: base.ConfigSecret,
		current: LLMSettings{
			Provider: base.LLMProvider,
			Config: map[string]string{
				"api_key":       base.AnthropicAPIKey,
				"default_model": base.LLMModel,
				"max_tokens":    strconv.Itoa(base.LLMMaxTokens),
			},
		},
	}
	if base.LLMBaseURL != "" {
		m.current.Config["base_url"] = base.LLMBaseURL
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}

	var saved LLMSettings
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.path, err)
	}
	if saved.Provider != "" {
		m.current.Provider = saved.Provider
	}
	for k, v := range saved.Config {
		if v == "" {
			continue
		}
		if k == "api_key" {
			plain, err := utils.DecryptSecret(v, m.secret)
			if err != nil {
				return nil, fmt.Errorf("decrypt api_key: %w", err)
			}
			v = plain
		}
		m.current.Config[k] = v
	}
	return m, nil
}

// LLM returns a copy of the current settings.
func (m *Manager) LLM() LLMSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

// UpdateLLM replaces the provider settings and persists them. Keys absent
// from cfg keep their previous values.
func (m *Manager) UpdateLLM(provider string, cfg map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.current.clone()
	if provider != "" {
		next.Provider = provider
	}
	for k, v := range cfg {
		next.Config[k] = v
	}
	if err := m.save(next); err != nil {
		return err
	}
	m.current = next
	return nil
}

func (m *Manager) save(s LLMSettings) error {
	onDisk := s.clone()
	if key := onDisk.Config["api_key"]; key != "" {
		sealed, err := utils.EncryptSecret(key, m.secret)
		if err != nil {
			return fmt.Errorf("encrypt api_key: %w", err)
		}
		onDisk.Config["api_key"] = sealed
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(m.path, data, 0600)
}
