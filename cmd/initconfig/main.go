package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"

	"github.com/rejot-dev/evalrun/internal/color"
	"github.com/rejot-dev/evalrun/internal/config"
)

var configTemplate = `# evalrun settings
# Command line options choose the pipeline and its parameters; this file holds
# settings shared by every launch.

version: "1.0"

# debug, info, warn or error
log_level: "{{ .LogLevel }}"

# stdout or github
reporter: "{{ .Reporter }}"
{{- if ne .ServiceAccount "" }}

# Service account the pipeline runs as
service_account: "{{ .ServiceAccount }}"
{{- end }}

# Labels attached to every pipeline job
labels:
  launched_by: "evalrun"

# Target used by --kokoro_test runs
kokoro:
  project: "{{ .KokoroProject }}"
{{- if ne .KokoroRootDir "" }}
  root_dir: "{{ .KokoroRootDir }}"
{{- end }}

preflight:
  # Check that --model_name exists on Vertex AI before submitting
  check_model: false
`

type ConfigData struct {
	LogLevel       string
	Reporter       string
	ServiceAccount string
	KokoroProject  string
	KokoroRootDir  string
}

func main() {
	if err := runInit(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(in io.Reader, out io.Writer) error {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color.Blue).
		Padding(0, 2).
		MarginBottom(1)

	fmt.Fprintln(out, titleStyle.Render("📋 evalrun Settings Setup"))

	reader := bufio.NewReader(in)

	configFile := promptForInput(reader, out, "Settings filename", config.DefaultPath)

	if _, err := os.Stat(configFile); err == nil {
		warningStyle := lipgloss.NewStyle().
			Foreground(color.Yellow).
			Bold(true)

		fmt.Fprintf(out, "%s File '%s' already exists. Overwrite? (y/N): ",
			warningStyle.Render("⚠️"), configFile)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			return fmt.Errorf("not overwriting existing settings file: %s", configFile)
		}
	}

	data := ConfigData{
		Reporter:       promptForInput(reader, out, "Reporter [stdout, github]", "stdout"),
		LogLevel:       promptForInput(reader, out, "Log level", "info"),
		ServiceAccount: promptForInput(reader, out, "Service account (optional)", ""),
		KokoroProject:  promptForInput(reader, out, "Kokoro test project", config.DefaultKokoroProject),
		KokoroRootDir:  promptForInput(reader, out, "Kokoro root dir (optional)", ""),
	}

	settings, err := generateConfig(data)
	if err != nil {
		return fmt.Errorf("failed to generate settings: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(settings), 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	successStyle := lipgloss.NewStyle().
		Foreground(color.Green).
		Bold(true).
		MarginTop(1)

	codeStyle := lipgloss.NewStyle().
		Foreground(color.Yellow).
		Padding(0, 1)

	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Settings file '%s' created successfully!", configFile)))
	if configFile != config.DefaultPath {
		fmt.Fprintf(out, "   Point evalrun at it with %s\n", codeStyle.Render("export "+config.EnvConfigPath+"="+configFile))
	}
	return nil
}

func promptForInput(reader *bufio.Reader, out io.Writer, prompt, defaultValue string) string {
	promptStyle := lipgloss.NewStyle().
		Foreground(color.Cyan).
		Bold(true)

	defaultStyle := lipgloss.NewStyle().
		Italic(true)

	if defaultValue != "" {
		fmt.Fprintf(out, "%s %s: ",
			promptStyle.Render(prompt),
			defaultStyle.Render("(default: "+defaultValue+")"))
	} else {
		fmt.Fprintf(out, "%s: ", promptStyle.Render(prompt))
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// generateConfig renders the settings template and checks that the result
// loads.
func generateConfig(data ConfigData) (string, error) {
	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	if _, err := config.ParseFromBytes(buf.Bytes()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
