package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/stal/internal/compiler"
	"github.com/roach88/stal/internal/setplan"
)

// QueryOptions holds the flags shared by every command that loads a query
// document. Flags override the matching document fields.
type QueryOptions struct {
	Command   string
	Members   bool
	Namespace string
	NFC       bool
}

// addQueryFlags registers the query flags on cmd.
func addQueryFlags(cmd *cobra.Command, opts *QueryOptions) {
	cmd.Flags().StringVar(&opts.Command, "command", "", "terminal command (default from document, else SMEMBERS)")
	cmd.Flags().BoolVar(&opts.Members, "members", false, "answer with the root operator directly (SUNION/SINTER/SDIFF)")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "prefix of temporary keys (default \"stal\")")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "apply Unicode NFC normalization to key names")
}

// LoadError represents an error that occurred while loading a query.
type LoadError struct {
	Code    string
	Message string
	Field   string
	Pos     compiler.Position // Source position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadedQuery is a compiled query and the document it came from.
type LoadedQuery struct {
	Path     string
	Document *compiler.Document
	Query    *setplan.Query
}

// LoadQuery reads, decodes and compiles the query document at path.
// Every failure is a *LoadError.
func LoadQuery(path string, opts QueryOptions) (*LoadedQuery, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query document not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing query document: %v", err)}
	}

	doc, err := compiler.LoadFile(path, compiler.Options{NormalizeKeys: opts.NFC})
	if err != nil {
		return nil, convertCompileError(err)
	}

	if opts.Command != "" {
		doc.Command = opts.Command
	}
	if opts.Members {
		doc.Members = true
	}
	if opts.Namespace != "" {
		doc.Namespace = opts.Namespace
	}

	q, err := doc.Query()
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadedQuery{Path: path, Document: doc, Query: q}, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Field:   compileErr.Field,
			Pos:     compileErr.Pos,
		}
	}
	if strings.Contains(err.Error(), "unsupported document extension") {
		return &LoadError{Code: ErrCodeUnsupported, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeParse       = "E002" // Document does not parse
	ErrCodeUnsupported = "E003" // Unknown document extension
	ErrCodeStore       = "E004" // SQLite store error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeRedis       = "E006" // Redis server error
	ErrCodeWriteFailed = "E007" // File write error

	// Document errors
	ErrCodeUnknownField    = "E101" // Field not part of the document shape
	ErrCodeInvalidSet      = "E102" // Malformed set expression
	ErrCodeInvalidTemplate = "E103" // Template or placeholder error
	ErrCodeInvalidSets     = "E104" // sets entry error
	ErrCodeInvalidCommand  = "E105" // command/members conflict or bad type
	ErrCodeInvalidNS       = "E106" // Bad namespace
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	root := field
	if i := strings.IndexAny(root, ".["); i >= 0 {
		root = root[:i]
	}

	switch root {
	case "document", "cue":
		return ErrCodeParse
	case "set":
		return ErrCodeInvalidSet
	case "template":
		return ErrCodeInvalidTemplate
	case "sets":
		return ErrCodeInvalidSets
	case "command", "members":
		return ErrCodeInvalidCommand
	case "namespace":
		return ErrCodeInvalidNS
	case "":
		return ErrCodeGeneric
	default:
		return ErrCodeUnknownField
	}
}

// loadFailure reports a LoadError through the formatter and returns the
// matching exit error.
func loadFailure(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	var details any
	if loadErr.Pos.IsValid() || loadErr.Field != "" {
		details = map[string]any{
			"field":  loadErr.Field,
			"line":   loadErr.Pos.Line,
			"column": loadErr.Pos.Column,
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Error(), details)
	return WrapExitError(ExitCommandError, "failed to load query", loadErr)
}
