package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/daub/internal/config"
	"github.com/dyluth/daub/internal/printer"
)

//go:embed templates/*
var templatesFS embed.FS

// Values fills the daub.yml template.
type Values struct {
	Identity string
	RedisURL string
	CanvasID string
	Size     int
}

// Initialize writes daub.yml into dir. With force an existing file is
// replaced; without it CheckExisting must pass first.
func Initialize(dir string, values Values, force bool) (string, error) {
	path := filepath.Join(dir, config.DefaultPath)

	if force {
		if _, err := os.Stat(path); err == nil {
			printer.Warning("Removing existing %s...\n", config.DefaultPath)
			if err := os.Remove(path); err != nil {
				return "", fmt.Errorf("failed to remove %s: %w", config.DefaultPath, err)
			}
		}
	}

	content, err := render(values)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	// The written file must load through the same path the CLI uses.
	if _, err := config.Load(path); err != nil {
		return "", fmt.Errorf("created %s is invalid: %w", config.DefaultPath, err)
	}
	return path, nil
}

func render(values Values) ([]byte, error) {
	if values.RedisURL == "" {
		values.RedisURL = config.DefaultRedisURL
	}
	if values.Size <= 0 {
		values.Size = config.DefaultCanvasSize
	}

	raw, err := templatesFS.ReadFile("templates/daub.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read daub.yml template: %w", err)
	}
	tmpl, err := template.New("daub.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse daub.yml template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return nil, fmt.Errorf("failed to render daub.yml: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintSuccess prints the created file and the next steps.
func PrintSuccess(path string) {
	printer.Success("Initialized daub configuration\n")
	printer.Println("\nCreated:")
	printer.Printf("  ✓ %s\n", path)
	printer.Println("\nNext steps:")
	printer.Println("  1. Set your identity in daub.yml (or export DAUB_IDENTITY)")
	printer.Println("  2. Create a canvas: daub create --size 100 --price 1000")
	printer.Println("  3. Fund your identity: daub fund --amount 100000")
	printer.Println("  4. Paint: daub paint 10 20 --color '#ff0000'")
}
