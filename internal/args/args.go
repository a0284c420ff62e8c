package args

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

var (
	// ErrInvalidArgument is returned when a recognized option that takes a
	// value is given none.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrHelp is returned when -h or --help is present.
	ErrHelp = pflag.ErrHelp
)

// Configuration keys.
const (
	KeyPipeline                   = "pipeline"
	KeyProject                    = "project"
	KeyLocation                   = "location"
	KeyRootDir                    = "root_dir"
	KeyEvaluationTask             = "evaluation_task"
	KeyModelName                  = "model_name"
	KeyJoinedPredictionsGCSSource = "joined_predictions_gcs_source"
	KeyPredictionsGCSSource       = "predictions_gcs_source"
	KeyGroundTruthGCSSource       = "ground_truth_gcs_source"
	KeyBatchPredictGCSDestination = "batch_predict_gcs_destination_output_uri"
	KeySliceSpecDataPath          = "slice_spec_data_path"
	KeyKokoroTest                 = "kokoro_test"
	KeyWait                       = "wait"
)

// Option is one recognized command line option. Flag is the name used on the
// command line, Key the name it is stored under in the Configuration.
// Default is either a string or a bool; bool options are bare flags.
type Option struct {
	Flag    string
	Key     string
	Default any
	Usage   string
}

var Options = []Option{
	{Flag: "pipeline", Key: KeyPipeline, Default: "llm_eval_minimal_pipeline",
		Usage: `Pipeline to run, either a built-in name or a path to a .yaml/.hcl definition. Defaults to "llm_eval_minimal_pipeline".`},
	{Flag: "project", Key: KeyProject, Default: "model-evaluation-dev", Usage: "Google Cloud project to run in."},
	{Flag: "location", Key: KeyLocation, Default: "us-central1", Usage: "Region to run in."},
	{Flag: "root_dir", Key: KeyRootDir, Default: "gs://model-evaluation-test-data/pipeline_root",
		Usage: "Storage root under which run artifacts are staged."},
	{Flag: "evaluation_task", Key: KeyEvaluationTask, Default: "text-generation", Usage: "Evaluation task type."},
	{Flag: "model_name", Key: KeyModelName, Default: "", Usage: "Model resource to evaluate."},
	{Flag: "joined_predictions_gcs_source", Key: KeyJoinedPredictionsGCSSource, Default: ""},
	{Flag: "predictions_gcs_source", Key: KeyPredictionsGCSSource, Default: ""},
	{Flag: "ground_truth_gcs_source", Key: KeyGroundTruthGCSSource, Default: ""},
	{Flag: "batch_predict_gcs_destination_output_uri", Key: KeyBatchPredictGCSDestination, Default: ""},
	{Flag: "slice_spec_gcs_source", Key: KeySliceSpecDataPath, Default: ""},
	{Flag: "kokoro_test", Key: KeyKokoroTest, Default: false,
		Usage: `If true, override project root directory and id to the "model-evaluation-e2e" project for Kokoro testing.`},
	{Flag: "wait", Key: KeyWait, Default: false, Usage: "If true, block on jobs to complete."},
}

// Parse builds a Configuration from raw tokens. Tokens that are not
// recognized options are discarded. title only appears in help output.
func Parse(title string, tokens []string) (*Configuration, error) {
	if err := checkValues(tokens); err != nil {
		return nil, err
	}

	fs := newFlagSet(title)
	strs, bools := define(fs)
	if err := fs.Parse(tokens); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	values := make(map[string]any, len(Options))
	for key, v := range strs {
		values[key] = *v
	}
	for key, v := range bools {
		values[key] = *v
	}
	return &Configuration{values: values}, nil
}

// Usage renders the help text for title.
func Usage(title string) string {
	fs := newFlagSet(title)
	define(fs)

	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [options]\n\n", title)
	b.WriteString("Options:\n")
	b.WriteString(fs.FlagUsages())
	return b.String()
}

// define registers every option on fs and returns the value pointers keyed
// by configuration key.
func define(fs *pflag.FlagSet) (map[string]*string, map[string]*bool) {
	strs := make(map[string]*string)
	bools := make(map[string]*bool)
	for _, opt := range Options {
		switch def := opt.Default.(type) {
		case string:
			strs[opt.Key] = fs.String(opt.Flag, def, opt.Usage)
		case bool:
			bools[opt.Key] = fs.Bool(opt.Flag, def, opt.Usage)
		}
	}
	return strs, bools
}

func newFlagSet(title string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(title, pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	return fs
}

// checkValues rejects a value option whose value is missing or looks like
// another flag. pflag would otherwise swallow the next flag as the value.
func checkValues(tokens []string) error {
	valued := make(map[string]bool)
	for _, opt := range Options {
		if _, ok := opt.Default.(string); ok {
			valued[opt.Flag] = true
		}
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "--" {
			return nil
		}
		name, ok := strings.CutPrefix(tok, "--")
		if !ok || strings.Contains(name, "=") || !valued[name] {
			continue
		}
		if i+1 >= len(tokens) || isFlag(tokens[i+1]) {
			return fmt.Errorf("%w: option --%s expects a value", ErrInvalidArgument, name)
		}
		i++
	}
	return nil
}

func isFlag(tok string) bool {
	return len(tok) > 1 && tok[0] == '-'
}
