package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/stepform"
)

// errStopped ends a run early; progress is already persisted.
var errStopped = errors.New("stopped")

func newRunCmd(opts *storeOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "run <definition.yaml>",
		Short: "Fill in a wizard, resuming saved progress",
		Long: `Fill in a wizard step by step. At any prompt:

  enter      keep the shown value
  :back      go to the previous step
  :jump N    go to step N (only steps already reached)
  :reset     start over
  :quit      stop; progress is saved`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			def, err := stepform.LoadDefinitionFile(args[0])
			if err != nil {
				return err
			}
			if key == "" {
				key = def.StorageKey
			}
			if key == "" {
				key = def.Name
			}
			if key == "" {
				return errors.New("no storage key: set storage_key in the definition or pass --key")
			}

			be, err := openBackend(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = be.close() }()

			out := cmd.OutOrStdout()
			w, err := def.Builder().
				OnComplete(func(ctx context.Context, state stepform.FormState) error {
					return printState(out, state)
				}).
				Persist(be.snapshots, key).
				History(be.events).
				Observe(stepform.NewLoggingObserver(slog.Default())).
				Logger(slog.Default()).
				Build(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close(context.WithoutCancel(ctx)) }()

			fmt.Fprintln(out, mutedStyle.Render("run "+w.ID()))
			if w.CurrentStepIndex() > 0 {
				fmt.Fprintln(out, infoMsg("resuming %q at step %d", key, w.CurrentStepIndex()+1))
			}

			err = drive(ctx, w, bufio.NewScanner(cmd.InOrStdin()), out)
			if errors.Is(err, errStopped) {
				fmt.Fprintln(out, warnMsg("progress saved under %q", key))
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Storage key (defaults to the definition's storage_key or name)")
	return cmd
}

// drive runs the prompt loop until the wizard is submitted, the user quits
// or input ends.
func drive(ctx context.Context, w stepform.Wizard, in *bufio.Scanner, out io.Writer) error {
	for w.SubmissionStatus() != stepform.StatusSuccess {
		fmt.Fprint(out, stepHeader(w))

		moved, err := promptStep(ctx, w, in, out)
		if err != nil {
			return err
		}
		if moved {
			continue
		}

		if w.IsLastStep() {
			err = w.SubmitForm(ctx)
		} else {
			err = w.NextStep(ctx)
		}
		if err := report(w, out, err); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, successMsg("submitted"))
	return nil
}

// promptStep asks for every field of the current step. It reports
// moved=true when a navigation command already changed the cursor.
func promptStep(ctx context.Context, w stepform.Wizard, in *bufio.Scanner, out io.Writer) (bool, error) {
	specs := stepform.FieldSpecs(w.CurrentStep())
	if len(specs) == 0 {
		// Steps without fields still need an explicit confirmation.
		specs = []stepform.FieldSpec{{}}
	}

	for _, spec := range specs {
		label := "continue"
		current := ""
		if spec.Key != "" {
			label = spec.DisplayLabel()
			current = w.State().String(spec.Key)
		}
		if spec.Help != "" {
			label += " " + mutedStyle.Render("("+spec.Help+")")
		}
		if current != "" {
			label += " " + mutedStyle.Render("["+current+"]")
		}
		fmt.Fprintf(out, "%s: ", label)

		if !in.Scan() {
			if err := in.Err(); err != nil {
				return false, err
			}
			return false, errStopped
		}
		line := strings.TrimSpace(in.Text())

		if strings.HasPrefix(line, ":") {
			return true, command(ctx, w, out, line)
		}
		if line != "" && spec.Key != "" {
			w.SetField(spec.Key, line)
		}
	}
	return false, nil
}

func command(ctx context.Context, w stepform.Wizard, out io.Writer, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":q", ":quit":
		return errStopped
	case ":b", ":back":
		if !w.PrevStep(ctx) {
			fmt.Fprintln(out, warnMsg("already on the first step"))
		}
	case ":r", ":reset":
		return report(w, out, w.Reset(ctx))
	case ":j", ":jump":
		if len(fields) != 2 {
			fmt.Fprintln(out, warnMsg("usage: :jump N"))
			return nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintln(out, warnMsg("not a step number: %s", fields[1]))
			return nil
		}
		return report(w, out, w.GoToStep(ctx, n-1))
	default:
		fmt.Fprintln(out, warnMsg("unknown command %s", fields[0]))
	}
	return nil
}

// report prints recoverable errors and returns the rest.
func report(w stepform.Wizard, out io.Writer, err error) error {
	var verr *stepform.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		if len(verr.Fields) == 0 {
			fmt.Fprintln(out, errorMsg("%s", verr.Error()))
			return nil
		}
		fmt.Fprint(out, fieldErrorLines(w.FieldErrors()))
		return nil
	case errors.Is(err, stepform.ErrSubmissionFailed):
		fmt.Fprintln(out, errorMsg("%v", err))
		fmt.Fprintln(out, infoMsg("your answers are kept; press enter to retry"))
		return nil
	case errors.Is(err, stepform.ErrStepNotReached), errors.Is(err, stepform.ErrStepOutOfRange):
		fmt.Fprintln(out, warnMsg("%v", err))
		return nil
	default:
		return err
	}
}

func printState(out io.Writer, state stepform.FormState) error {
	data, err := yaml.Marshal(map[string]any(state))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintf(out, "\n%s", data)
	return err
}
