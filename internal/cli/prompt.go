package cli

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"plansheet-cli/internal/form"
)

var errAborted = errors.New("aborted")

// Prompter asks the user for field values and confirmations.
type Prompter interface {
	Field(ctx context.Context, f form.Field) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Field(ctx context.Context, f form.Field) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	strat := f.Kind.Strategy()
	msg := f.Label + ":"
	var out string
	var prompt survey.Prompt
	if strat.Multiline {
		prompt = &survey.Multiline{Message: msg, Default: f.Value, Help: strat.Placeholder}
	} else {
		prompt = &survey.Input{Message: msg, Default: f.Value, Help: strat.Placeholder}
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	if err := survey.AskOne(&survey.Confirm{Message: message}, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// fillForm prompts for every field, showing server messages from a previous
// attempt next to the field they belong to.
func fillForm(ctx context.Context, p Prompter, f *form.Form) error {
	for i := range f.Fields {
		fld := f.Fields[i]
		if len(fld.Errors) > 0 {
			fld.Label = fld.Label + " (" + fld.Errors[0] + ")"
		}
		v, err := p.Field(ctx, fld)
		if err != nil {
			return err
		}
		f.Set(fld.Name, v)
	}
	return nil
}
