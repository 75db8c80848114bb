/*
 * main.go, part of gopic.
 *
 *
 * Copyright 2024 The gopic Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */

//picinfo prints the catalogue of a simulation directory: its fields, with their
//units and iterations, and its particle species, with their components.
//It can also write one iteration of a field or species as JSON, plot it, and
//print the evolution of the parameters of a beam.
//
//Usage:
//
//	picinfo [flags] [directory]
//
//The directory, format and plasma density can be given with flags or in a TOML
//file (see package config). Flags override the file.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rmera/gopic"
	"github.com/rmera/gopic/analysis"
	"github.com/rmera/gopic/config"
	_ "github.com/rmera/gopic/formats/hipace"
	_ "github.com/rmera/gopic/formats/openpmd"
	_ "github.com/rmera/gopic/formats/osiris"
	"github.com/rmera/gopic/h5/native"
	"github.com/rmera/gopic/picjson"
	"github.com/rmera/gopic/picplot"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"
)

func main() {
	cfgname := flag.String("config", "", "TOML configuration file")
	format := flag.String("format", "", fmt.Sprintf("data format %v", pic.Formats()))
	density := flag.Float64("density", 0, "plasma density, in m^-3, needed by osiris and hipace data")
	level := flag.String("log", "", "log level (debug, info, warn, error)")
	dump := flag.String("dump", "", "field or species to write as JSON")
	it := flag.Int("it", -1, "iteration for -dump and -plot, the last one if negative")
	out := flag.String("o", "", "output of -dump, stdout if not given. Names ending in .zst or .gz are compressed")
	plotname := flag.String("plot", "", "save a plot of the -dump field or species to this file (png, svg, pdf)")
	beam := flag.String("beam", "", "print the evolution of the parameters of this species")
	flag.Parse()

	cfg := new(config.Config)
	var err error
	if *cfgname != "" {
		cfg, err = config.Load(*cfgname)
		if err != nil {
			fatal(err)
		}
	}
	if *format != "" {
		cfg.Format = *format
	}
	if *density > 0 {
		cfg.PlasmaDensity = *density
	}
	if *level != "" {
		cfg.LogLevel = *level
	}
	if flag.NArg() > 0 {
		cfg.Path = flag.Arg(0)
	}
	if cfg.Format == "" || cfg.Path == "" {
		fmt.Fprintln(os.Stderr, "picinfo: a format and a directory are needed")
		flag.Usage()
		os.Exit(2)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fatal(err)
	}
	defer logger.Sync()
	dc, err := cfg.Container(native.Opener(cfg.Path), logger)
	if err != nil {
		fatal(err)
	}
	if *dump == "" && *beam == "" {
		catalogue(dc, os.Stdout)
		return
	}
	if *dump != "" {
		if err := write(dc, *dump, *it, *out, *plotname); err != nil {
			fatal(err)
		}
	}
	if *beam != "" {
		if err := beamEvolution(dc, *beam, cfg.Workers, os.Stdout, logger); err != nil {
			fatal(err)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "picinfo:", err)
	os.Exit(1)
}

func span(its []int) string {
	if len(its) == 0 {
		return "-"
	}
	return fmt.Sprintf("%d (%d to %d)", len(its), its[0], its[len(its)-1])
}

func catalogue(dc *pic.DataContainer, out io.Writer) {
	fmt.Fprintf(out, "%s data in %s, geometry %s\n\n", dc.Format(), dc.Path(), dc.Geometry())
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tUNITS\tITERATIONS")
	for _, f := range dc.Fields() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.FullName(), f.Units(), span(f.Iterations()))
	}
	w.Flush()
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tITERATIONS\tCOMPONENTS")
	for _, name := range dc.SpeciesNames() {
		sp, err := dc.Species(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%v\n", name, span(sp.Iterations()), sp.Components())
	}
	w.Flush()
}

func pick(its []int, it int) (int, error) {
	if len(its) == 0 {
		return 0, fmt.Errorf("no iterations")
	}
	if it < 0 {
		return its[len(its)-1], nil
	}
	return it, nil
}

//write writes the iteration it of the field or species name as JSON, and plots it
//if plotname is given.
func write(dc *pic.DataContainer, name string, it int, outname, plotname string) (err error) {
	var out io.Writer = os.Stdout
	if outname != "" {
		f, err := picjson.Create(outname)
		if err != nil {
			return err
		}
		//compressed output is only complete once closed.
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
	}
	if sp, err := dc.Species(name); err == nil {
		it, err = pick(sp.Iterations(), it)
		if err != nil {
			return err
		}
		pd, err := sp.Data(it, nil, nil)
		if err != nil {
			return err
		}
		if err := picjson.WriteParticles(pd, out); err != nil {
			return err
		}
		if plotname == "" {
			return nil
		}
		p, err := picplot.PhaseSpace(pd, "z", "pz", "")
		if err != nil {
			return err
		}
		return p.Save(6*vg.Inch, 4*vg.Inch, plotname)
	}
	f, err := dc.Field(name)
	if err != nil {
		return err
	}
	it, err = pick(f.Iterations(), it)
	if err != nil {
		return err
	}
	fd, err := f.Data(it, nil)
	if err != nil {
		return err
	}
	if err := picjson.WriteField(fd, out); err != nil {
		return err
	}
	if plotname == "" {
		return nil
	}
	p, err := picplot.Heatmap(fd, "", nil)
	if err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, plotname)
}

func beamEvolution(dc *pic.DataContainer, name string, workers int, out io.Writer, logger *zap.Logger) error {
	sp, err := dc.Species(name)
	if err != nil {
		return err
	}
	ev := analysis.BeamEvolution(sp, sp.Iterations(), nil, workers)
	if ev.Failed() && len(ev.Iterations) > 0 {
		return ev.Errors[ev.Iterations[0]]
	}
	for it, err := range ev.Errors {
		logger.Warn("iteration skipped", zap.String("species", name), zap.Int("iteration", it), zap.Error(err))
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "iteration\t")
	for _, c := range ev.Columns {
		fmt.Fprintf(w, "%s\t", c)
	}
	fmt.Fprintln(w)
	for i, it := range ev.Iterations {
		if _, failed := ev.Errors[it]; failed {
			continue
		}
		fmt.Fprintf(w, "%d\t", it)
		for _, v := range ev.Data.RawRowView(i) {
			fmt.Fprintf(w, "%.4g\t", v)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
