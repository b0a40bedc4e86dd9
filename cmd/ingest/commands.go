package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/plan"
	"github.com/dataprep/ingest/internal/poller"
	"github.com/dataprep/ingest/internal/service"
)

var stdout io.Writer = os.Stdout

func (a *app) list(ctx context.Context) error {
	if err := a.catalog.Refresh(ctx); err != nil {
		return err
	}
	items := a.catalog.Items()
	if len(items) == 0 {
		fmt.Fprintln(stdout, "No datasets.")
		return nil
	}

	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tROWS\tCOLUMNS")
	for _, d := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.DisplayName(), model.StatusLabel(d.Status), optInt(d.RowCount), optInt(d.ColumnCount))
	}
	return w.Flush()
}

func (a *app) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	name := fs.String("name", "", "Dataset name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one file")
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := a.uploads.Upload(ctx, filepath.Base(path), f, *name, printObservation)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Uploaded %s as %s\n", filepath.Base(path), h.JobID())

	obs, err := h.Wait(ctx)
	if err != nil {
		h.Stop()
		return err
	}
	if obs.State != poller.StateSucceeded {
		return errors.New(obs.ErrorMessage)
	}
	return nil
}

func printObservation(obs poller.Observation) {
	line := fmt.Sprintf("[%3d%%] %s", obs.Progress, model.StatusLabel(obs.Status))
	if obs.ErrorMessage != "" {
		line += ": " + obs.ErrorMessage
	}
	fmt.Fprintln(stdout, line)
}

func (a *app) status(ctx context.Context, id string) error {
	resp, err := a.catalog.Status(ctx, id)
	if err != nil {
		return err
	}
	job := resp.Job()
	fmt.Fprintf(stdout, "%s: %s (%d%%)", job.ID, model.StatusLabel(job.Status), job.Progress)
	if job.Step != "" {
		fmt.Fprintf(stdout, ", step %s", model.StepLabel(job.Step))
	}
	fmt.Fprintln(stdout)
	if job.ErrorMessage != nil {
		fmt.Fprintln(stdout, "error:", *job.ErrorMessage)
	}
	return nil
}

func (a *app) detail(ctx context.Context, id string) error {
	d, err := a.catalog.Detail(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(d)
}

func (a *app) archive(ctx context.Context, id string) error {
	archived, err := a.catalog.Archive(ctx, id)
	if err != nil {
		return err
	}
	if !archived {
		return fmt.Errorf("dataset %s was not archived", id)
	}
	fmt.Fprintf(stdout, "Archived %s\n", id)
	return nil
}

func (a *app) showPlan(ctx context.Context, id string) error {
	e, err := a.cleaning.Open(ctx, id)
	if err != nil {
		return err
	}
	if err := printPlan(e); err != nil {
		return err
	}
	return printJSON(a.cleaning.Payload(e))
}

func (a *app) planApply(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plan-apply", flag.ContinueOnError)
	suggest := fs.Bool("suggest", false, "Apply the suggested imputations before the patches")
	dryRun := fs.Bool("dry-run", false, "Print the resulting plan without saving it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("expected a dataset id and a patch file")
	}

	patches, err := plan.LoadPatchFile(fs.Arg(1))
	if err != nil {
		return err
	}
	if *suggest {
		patches.Suggest = true
	}

	e, err := a.cleaning.Open(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := patches.Apply(e.Store); err != nil {
		return err
	}
	if err := printPlan(e); err != nil {
		return err
	}

	issues := e.Validate()
	for _, is := range issues {
		fmt.Fprintln(stdout, "issue:", is.String())
	}

	if *dryRun {
		return printJSON(a.cleaning.Payload(e))
	}

	resp, err := a.cleaning.Save(ctx, e)
	if err != nil {
		var invalid *service.InvalidPlanError
		if errors.As(err, &invalid) {
			return fmt.Errorf("plan not saved, %d blocking issue(s)", len(invalid.Issues))
		}
		return err
	}
	if !resp.OK {
		return fmt.Errorf("backend did not accept the plan")
	}
	fmt.Fprintln(stdout, "Plan saved.")
	return nil
}

func printPlan(e *service.Editor) error {
	if e.Dataset != nil {
		fmt.Fprintf(stdout, "%s (%s), %s rows\n", e.Dataset.Name, e.Dataset.ID, optInt(e.Dataset.RowCount))
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCOLUMN\tOUTPUT\tTYPE\tDROP\tNULLS\tIMPUTATION")
	for i, p := range e.Plans() {
		nulls := "-"
		if meta, ok := e.Meta(p.Name); ok {
			nulls = fmt.Sprint(meta.Nulls)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%s\t%s\n",
			i, p.Name, p.OutputName(), p.TargetType, p.Drop, nulls, describeImputation(p.Imputation, e.RangeHint(i)))
	}
	return w.Flush()
}

// describeImputation renders imp for the plan table. rangeHint is the column's
// observed "min,max", shown next to a random range for comparison.
func describeImputation(imp model.Imputation, rangeHint string) string {
	if imp == nil {
		return "-"
	}
	label := model.MethodLabel(imp.Method())
	switch v := imp.(type) {
	case model.Constant:
		return fmt.Sprintf("%s %q", label, v.Value)
	case model.ChooseValue:
		return fmt.Sprintf("%s %q", label, v.Value)
	case model.RandomRange:
		if rangeHint == "" || rangeHint == "min,max" {
			return label + " " + v.String()
		}
		return fmt.Sprintf("%s %s (observed %s)", label, v.String(), rangeHint)
	}
	return label
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, strings.TrimSpace(string(data)))
	return err
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
