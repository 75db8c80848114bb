/*
 * config.go, part of gopic.
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

//Package config reads the TOML description of a data set: where the simulation is,
//in which format, the physical parameters needed to normalise it and what should be
//derived from it. A minimal file is
//
//	format = "osiris"
//	path = "/scratch/run1"
//	plasma_density = 1e24
//	derived_fields = ["I", "a"]
//
//	[params]
//	lambda_0 = 0.8e-6
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rmera/gopic"
	"github.com/rmera/gopic/h5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//Config is the content of a configuration file.
type Config struct {
	Format        string  `toml:"format"`
	Path          string  `toml:"path"`
	PlasmaDensity float64 `toml:"plasma_density"` //m^-3, 0 if not needed

	//Lambda0 is the laser wavelength, in m. If given, it is also set as the
	//lambda_0 parameter.
	Lambda0       float64            `toml:"lambda_0"`
	Workers       int                `toml:"workers"`
	LogLevel      string             `toml:"log_level"`
	DerivedFields []string           `toml:"derived_fields"`
	Params        map[string]float64 `toml:"params"`
}

//Load decodes the file name. Keys that don't belong in a Config are an error,
//as they are most likely typos.
func Load(name string) (*Config, error) {
	c := new(Config)
	meta, err := toml.DecodeFile(name, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.check(meta); err != nil {
		return nil, err
	}
	return c, nil
}

//Decode is like Load, but reads the configuration from the string data.
func Decode(data string) (*Config, error) {
	c := new(Config)
	meta, err := toml.Decode(data, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.check(meta); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) check(meta toml.MetaData) error {
	if und := meta.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	if c.Format == "" {
		return fmt.Errorf("config: no format given. Available: %s", strings.Join(pic.Formats(), ", "))
	}
	if c.PlasmaDensity < 0 || c.Lambda0 < 0 {
		return fmt.Errorf("config: negative plasma density or wavelength")
	}
	if _, err := c.Derived(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

//Parameters returns the physical parameters, including lambda_0 if Lambda0 was given.
func (c *Config) Parameters() pic.Params {
	ret := pic.Params{}
	for k, v := range c.Params {
		ret[k] = v
	}
	if c.Lambda0 > 0 {
		ret["lambda_0"] = c.Lambda0
	}
	return ret
}

//Derived returns the definitions of the built-in derived fields named in DerivedFields.
func (c *Config) Derived() ([]pic.DerivedFieldDefinition, error) {
	avail := map[string]pic.DerivedFieldDefinition{}
	for _, d := range pic.DerivedFields {
		avail[d.Name] = d
	}
	var ret []pic.DerivedFieldDefinition
	for _, n := range c.DerivedFields {
		d, ok := avail[n]
		if !ok {
			names := make([]string, 0, len(avail))
			for k := range avail {
				names = append(names, k)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("config: unknown derived field %s. Available: %s", n, strings.Join(names, ", "))
		}
		ret = append(ret, d)
	}
	return ret, nil
}

func (c *Config) level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.WarnLevel, nil
	}
	l, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return l, fmt.Errorf("config: %w", err)
	}
	return l, nil
}

//Logger builds a console logger at LogLevel (warn if not given), writing to stderr.
func (c *Config) Logger() (*zap.Logger, error) {
	l, err := c.level()
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(l)
	zc.DisableStacktrace = true
	return zc.Build()
}

//Options returns the container options for the configuration, with the HDF5
//opener and logger given.
func (c *Config) Options(opener h5.Opener, logger *zap.Logger) []pic.Option {
	opts := []pic.Option{pic.WithOpener(opener), pic.WithParams(c.Parameters())}
	if c.PlasmaDensity > 0 {
		opts = append(opts, pic.WithPlasmaDensity(c.PlasmaDensity))
	}
	if logger != nil {
		opts = append(opts, pic.WithLogger(logger))
	}
	return opts
}

//Container builds and loads the data container described by the configuration,
//and adds the derived fields requested. extra options are applied after the
//configuration ones.
func (c *Config) Container(opener h5.Opener, logger *zap.Logger, extra ...pic.Option) (*pic.DataContainer, error) {
	defs, err := c.Derived()
	if err != nil {
		return nil, err
	}
	dc, err := pic.NewDataContainer(c.Format, c.Path, append(c.Options(opener, logger), extra...)...)
	if err != nil {
		return nil, err
	}
	if err := dc.LoadData(false); err != nil {
		return nil, err
	}
	for _, d := range defs {
		if err := dc.AddDerivedField(d); err != nil {
			return nil, err
		}
	}
	return dc, nil
}
