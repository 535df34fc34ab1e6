package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hazyhaar/storet-normalizer/pkg/output"
	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// Report is the result of Build.
type Report struct {
	Root      string
	OutputDir string
	UpToDate  bool // previous complete output was reused
	Worklist  *storet.Worklist
	Summary   *Summary
	Manifest  *output.Manifest
}

// Build runs the whole conversion for one state: resolve and walk root,
// stream into outDir, then write schema.sql, the import script and
// manifest.yaml. When outDir already holds a complete run and force is
// false, only the schema and script are regenerated.
//
// On failure or cancellation the tables stay as *.partial and the manifest
// is written with complete: false.
func (p *Pipeline) Build(ctx context.Context, root, outDir, dbName string, force bool) (*Report, error) {
	root, err := storet.ResolveRoot(root, p.stateName)
	if err != nil {
		return nil, err
	}
	rep := &Report{Root: root, OutputDir: outDir}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	if !force && output.UpToDate(outDir, p.stateName, p.stateAbbr, absRoot) {
		p.logger.Info("output already complete, skipping parse", "dir", outDir)
		rep.UpToDate = true
		if rep.Manifest, err = output.LoadManifest(outDir); err != nil {
			return nil, err
		}
		return rep, p.writeScripts(outDir, dbName)
	}

	wl, err := storet.Discover(root, p.stateAbbr)
	if err != nil {
		return nil, err
	}
	rep.Worklist = wl
	p.warnDiscovery(wl)

	ds, err := output.OpenDataset(outDir, storet.ParameterColumns, storet.StationColumns, storet.ResultColumns)
	if err != nil {
		return nil, err
	}

	m := output.NewManifest(p.stateName, p.stateAbbr, absRoot, p.encName, p.clock.Now())
	rep.Manifest = m

	sum, runErr := p.Run(ctx, wl, Sinks{Parameters: ds.Parameters, Stations: ds.Stations, Results: ds.Results})
	rep.Summary = sum
	committed := false
	if runErr == nil {
		runErr = ds.Commit()
		committed = runErr == nil
	} else {
		if aerr := ds.Abort(); aerr != nil {
			p.logger.Error("closing partial output", "error", aerr)
		}
	}
	if runErr == nil {
		runErr = p.writeScripts(outDir, dbName)
	}

	p.fillManifest(m, sum, ds, committed, runErr)
	if err := output.WriteManifest(outDir, m); err != nil && runErr == nil {
		runErr = err
		m.Complete = false
	}
	if m.Complete {
		p.metrics.RunComplete.Set(1)
	} else {
		p.metrics.RunComplete.Set(0)
	}
	return rep, runErr
}

func (p *Pipeline) writeScripts(outDir, dbName string) error {
	if err := output.WriteSchema(outDir, p.stateName); err != nil {
		return err
	}
	return output.WriteImportScript(outDir, p.stateName, dbName)
}

func (p *Pipeline) warnDiscovery(wl *storet.Worklist) {
	for _, role := range storet.Roles {
		if len(wl.Files(role)) == 0 {
			p.logger.Warn("no files found for role", "role", role.String(),
				"pattern", fmt.Sprintf("%s_*_%s*.txt", p.stateAbbr, role), "root", wl.Root)
		}
	}
	for _, dir := range wl.Unreadable {
		p.logger.Warn("cannot read directory, skipping", "path", dir)
	}
}

// fillManifest records the outcome. Table files carry PartialSuffix unless
// the commit renamed them, even if a later step failed.
func (p *Pipeline) fillManifest(m *output.Manifest, sum *Summary, ds *output.Dataset, committed bool, runErr error) {
	m.FinishedAt = p.clock.Now().UTC()
	m.Complete = runErr == nil
	if runErr != nil {
		m.Error = runErr.Error()
	}
	for _, role := range storet.Roles {
		s := sum.Role(role)
		rs := output.RoleStats{
			Files:      s.Files,
			Unreadable: s.Unreadable,
			Lines:      s.Lines,
			Written:    s.Written,
			Duplicates: s.Duplicates,
		}
		if len(s.Skipped) > 0 {
			rs.Skipped = make(map[string]int, len(s.Skipped))
			for k, v := range s.Skipped {
				rs.Skipped[string(k)] = v
			}
		}
		m.Roles[role.String()] = rs
	}
	m.Tables = []output.TableInfo{
		{Name: "parameters", File: ds.Parameters.Name(), Rows: ds.Parameters.Rows()},
		{Name: "stations", File: ds.Stations.Name(), Rows: ds.Stations.Rows()},
		{Name: "results", File: ds.Results.Name(), Rows: ds.Results.Rows()},
	}
	if !committed {
		for i := range m.Tables {
			m.Tables[i].File += output.PartialSuffix
		}
	}
}

// PrintSummary writes the operator summary for a finished Build.
func PrintSummary(w io.Writer, rep *Report) {
	fmt.Fprintln(w)
	if rep.UpToDate {
		fmt.Fprintf(w, "Output in %s is already complete (run %s); regenerated %s and %s.\n",
			rep.OutputDir, rep.Manifest.RunID, output.SchemaFile, output.ImportScriptFile)
		fmt.Fprintln(w, "Use -force to parse again.")
		fmt.Fprintln(w)
		printNext(w, rep.OutputDir)
		return
	}
	if rep.Summary == nil {
		return
	}
	s := rep.Summary
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Parameters: %-12s (%s duplicates, %s lines skipped)\n",
		humanize.Comma(int64(s.Parameters.Written)), humanize.Comma(int64(s.Parameters.Duplicates)), humanize.Comma(int64(s.Parameters.SkippedTotal())))
	fmt.Fprintf(w, "  Stations:   %-12s (%s duplicates, %s lines skipped)\n",
		humanize.Comma(int64(s.Stations.Written)), humanize.Comma(int64(s.Stations.Duplicates)), humanize.Comma(int64(s.Stations.SkippedTotal())))
	fmt.Fprintf(w, "  Results:    %-12s (%s lines skipped)\n",
		humanize.Comma(int64(s.Results.Written)), humanize.Comma(int64(s.Results.SkippedTotal())))
	if u := s.Parameters.Unreadable + s.Stations.Unreadable + s.Results.Unreadable; u > 0 {
		fmt.Fprintf(w, "  Unreadable files: %d\n", u)
	}
	fmt.Fprintf(w, "  Elapsed:    %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "\nOutput: %s\n", rep.OutputDir)
	if rep.Manifest != nil && rep.Manifest.Complete {
		fmt.Fprintln(w)
		printNext(w, rep.OutputDir)
	}
}

func printNext(w io.Writer, dir string) {
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintf(w, "  cd %s\n", dir)
	fmt.Fprintf(w, "  ./%s\n", output.ImportScriptFile)
}
