/*
 * container.go, part of gopic.
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

package pic

import (
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/rmera/gopic/h5"
	"go.uber.org/zap"
)

//Scanner discovers the fields and species of one simulation directory.
type Scanner interface {
	Scan() ([]Field, []ParticleSpecies, error)
}

//FormatConfig is what a ScannerFactory gets to build its Scanner.
type FormatConfig struct {
	//FS is the simulation directory.
	FS fs.FS
	//Opener opens the HDF5 files found in FS, by their path in FS.
	Opener        h5.Opener
	PlasmaDensity float64
	Params        Params
	Logger        *zap.Logger
}

//ScannerFactory builds the Scanner of a format for the directory path.
type ScannerFactory func(path string, cfg FormatConfig) (Scanner, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ScannerFactory{}
)

//RegisterFormat makes a format available under tag. It panics if tag is
//already registered or f is nil.
func RegisterFormat(tag string, f ScannerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f == nil {
		panic("pic: RegisterFormat with a nil factory for " + tag)
	}
	if _, dup := registry[tag]; dup {
		panic("pic: RegisterFormat called twice for " + tag)
	}
	registry[tag] = f
}

//Formats returns the registered format tags, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ret := make([]string, 0, len(registry))
	for k := range registry {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func factory(tag string) (ScannerFactory, error) {
	registryMu.RLock()
	f, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, notFound("data format", tag, Formats())
	}
	return f, nil
}

//Option configures a DataContainer.
type Option func(*DataContainer)

//WithOpener sets how HDF5 files are opened. It is required.
func WithOpener(o h5.Opener) Option {
	return func(D *DataContainer) { D.cfg.Opener = o }
}

//WithFS sets the file system the directory is scanned in. It defaults to
//os.DirFS of the container path.
func WithFS(fsys fs.FS) Option {
	return func(D *DataContainer) { D.cfg.FS = fsys }
}

//WithPlasmaDensity sets the reference plasma density, in m^-3, needed by formats
//that write normalized units.
func WithPlasmaDensity(n float64) Option {
	return func(D *DataContainer) { D.cfg.PlasmaDensity = n }
}

//WithLogger sets the logger. The default logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(D *DataContainer) { D.logger = l }
}

//WithParams sets the physical parameters derived fields can use.
func WithParams(p Params) Option {
	return func(D *DataContainer) {
		for k, v := range p {
			D.cfg.Params[k] = v
		}
	}
}

//DataContainer is the catalogue of the fields and species of one simulation. The
//base fields and species are fixed once loaded; derived fields can be added
//afterwards. It is safe for concurrent use.
type DataContainer struct {
	mu       sync.RWMutex
	format   string
	path     string
	cfg      FormatConfig
	logger   *zap.Logger
	loaded   bool
	fields   []Field
	species  []ParticleSpecies
	geometry Geometry
	defs     []DerivedFieldDefinition
	partDefs []ParticleComponentDefinition
}

//NewDataContainer returns the catalogue of the simulation at path, written in format.
//Nothing is read until LoadData is called.
func NewDataContainer(format, path string, opts ...Option) (*DataContainer, error) {
	if _, err := factory(format); err != nil {
		return nil, err
	}
	D := &DataContainer{
		format: format,
		path:   path,
		cfg:    FormatConfig{Params: Params{}},
		logger: zap.NewNop(),
	}
	for _, o := range opts {
		o(D)
	}
	if D.cfg.FS == nil {
		D.cfg.FS = os.DirFS(path)
	}
	if D.cfg.Opener == nil {
		return nil, configError(nil, "no HDF5 opener given for %s", path)
	}
	D.logger = D.logger.With(zap.String("format", format), zap.String("path", path))
	D.cfg.Logger = D.logger
	return D, nil
}

//Format returns the format tag of the container.
func (D *DataContainer) Format() string { return D.format }

//Path returns the simulation directory.
func (D *DataContainer) Path() string { return D.path }

//Params returns a copy of the physical parameters of the container.
func (D *DataContainer) Params() Params {
	ret := Params{}
	for k, v := range D.cfg.Params {
		ret[k] = v
	}
	return ret
}

//LoadData scans the directory. It does nothing if the data was already loaded,
//unless force is true. A forced reload rebuilds the derived fields and components
//added so far.
func (D *DataContainer) LoadData(force bool) error {
	D.mu.Lock()
	defer D.mu.Unlock()
	if D.loaded && !force {
		return nil
	}
	f, err := factory(D.format)
	if err != nil {
		return err
	}
	sc, err := f(D.path, D.cfg)
	if err != nil {
		return errDecorate(err, "LoadData")
	}
	fields, species, err := sc.Scan()
	if err != nil {
		return errDecorate(err, "LoadData")
	}
	seen := map[string]bool{}
	var geom Geometry
	for _, v := range fields {
		if seen[v.FullName()] {
			return unsupported("field %s found twice in %s", v.FullName(), D.path)
		}
		seen[v.FullName()] = true
		if geom == "" {
			geom = v.Geometry()
		} else if v.Geometry() != geom {
			return unsupported("fields with geometries %s and %s in %s", geom, v.Geometry(), D.path)
		}
	}
	seen = map[string]bool{}
	for _, v := range species {
		if seen[v.Name()] {
			return unsupported("species %s found twice in %s", v.Name(), D.path)
		}
		seen[v.Name()] = true
	}
	D.fields, D.species, D.geometry = fields, species, geom
	D.loaded = true
	for _, s := range D.species {
		for _, def := range ParticleComponents {
			if s.HasComponents(def.Requirements...) && !s.HasComponents(def.Name) {
				s.AddDerivedComponent(def)
			}
		}
		for _, def := range D.partDefs {
			if s.HasComponents(def.Requirements...) && !s.HasComponents(def.Name) {
				s.AddDerivedComponent(def)
			}
		}
	}
	defs := D.defs
	D.defs = nil
	for _, def := range defs {
		if err := D.addDerivedField(def); err != nil {
			D.logger.Warn("derived field dropped on reload", zap.String("field", def.Name), zap.Error(err))
		}
	}
	D.logger.Debug("data loaded", zap.Int("fields", len(D.fields)), zap.Int("species", len(D.species)), zap.String("geometry", string(geom)))
	return nil
}

func (D *DataContainer) checkLoaded() error {
	if !D.loaded {
		return configError(nil, "data of %s not loaded, call LoadData first", D.path)
	}
	return nil
}

//Geometry returns the geometry of the fields, or an empty string if there are none.
func (D *DataContainer) Geometry() Geometry {
	D.mu.RLock()
	defer D.mu.RUnlock()
	return D.geometry
}

//FieldNames returns the full names of the fields, derived ones included.
func (D *DataContainer) FieldNames() []string {
	D.mu.RLock()
	defer D.mu.RUnlock()
	return D.fieldNames()
}

func (D *DataContainer) fieldNames() []string {
	ret := make([]string, len(D.fields))
	for i, v := range D.fields {
		ret[i] = v.FullName()
	}
	return ret
}

//Fields returns all the fields.
func (D *DataContainer) Fields() []Field {
	D.mu.RLock()
	defer D.mu.RUnlock()
	return append([]Field(nil), D.fields...)
}

//Field returns the field name with the given component. Without a component,
//name can be a scalar field or a full name such as "Ex". Naming only a vector
//field, "E", is an error.
func (D *DataContainer) Field(name string, component ...string) (Field, error) {
	D.mu.RLock()
	defer D.mu.RUnlock()
	if err := D.checkLoaded(); err != nil {
		return nil, err
	}
	return D.field(name, component...)
}

func (D *DataContainer) field(name string, component ...string) (Field, error) {
	if len(component) > 0 && component[0] != "" {
		for _, v := range D.fields {
			if v.Name() == name && v.Component() == component[0] {
				return v, nil
			}
		}
		return nil, notFound("field", name+component[0], D.fieldNames())
	}
	for _, v := range D.fields {
		if v.FullName() == name {
			return v, nil
		}
	}
	var comps []string
	for _, v := range D.fields {
		if v.Name() == name && v.Component() != "" {
			comps = append(comps, v.Component())
		}
	}
	if len(comps) > 0 {
		return nil, unsupported("field %s has components %s, one must be given", name, listing(comps))
	}
	return nil, notFound("field", name, D.fieldNames())
}

//SpeciesNames returns the species that have all the required components.
func (D *DataContainer) SpeciesNames(required ...string) []string {
	D.mu.RLock()
	defer D.mu.RUnlock()
	var ret []string
	for _, v := range D.species {
		if v.HasComponents(required...) {
			ret = append(ret, v.Name())
		}
	}
	return ret
}

//Species returns the species name.
func (D *DataContainer) Species(name string) (ParticleSpecies, error) {
	D.mu.RLock()
	defer D.mu.RUnlock()
	if err := D.checkLoaded(); err != nil {
		return nil, err
	}
	var names []string
	for _, v := range D.species {
		if v.Name() == name {
			return v, nil
		}
		names = append(names, v.Name())
	}
	return nil, notFound("species", name, names)
}

//AddDerivedField builds def out of the fields it requires for the geometry of the
//simulation. It fails if the geometry is not supported by def, if a base field is
//missing or if the name is already taken.
func (D *DataContainer) AddDerivedField(def DerivedFieldDefinition) error {
	D.mu.Lock()
	defer D.mu.Unlock()
	if err := D.checkLoaded(); err != nil {
		return err
	}
	return D.addDerivedField(def)
}

func (D *DataContainer) addDerivedField(def DerivedFieldDefinition) error {
	if _, err := D.field(def.Name); err == nil {
		return unsupported("field %s already exists", def.Name)
	}
	req, ok := def.Requirements[D.geometry]
	if !ok {
		return unsupported("derived field %s is not implemented for geometry %s", def.Name, D.geometry)
	}
	bases := make([]Field, len(req))
	for i, r := range req {
		f, err := D.field(r)
		if err != nil {
			return errDecorate(err, "AddDerivedField "+def.Name)
		}
		bases[i] = f
	}
	df, err := NewDerivedField(def, D.geometry, bases, D.cfg.Params)
	if err != nil {
		return err
	}
	D.fields = append(D.fields, df)
	D.defs = append(D.defs, def)
	D.logger.Debug("derived field added", zap.String("field", def.Name), zap.Strings("requires", req))
	return nil
}

//AddDerivedParticleComponent registers def in every species that has its
//requirements, and returns the names of those species.
func (D *DataContainer) AddDerivedParticleComponent(def ParticleComponentDefinition) ([]string, error) {
	D.mu.Lock()
	defer D.mu.Unlock()
	if err := D.checkLoaded(); err != nil {
		return nil, err
	}
	var ret []string
	for _, s := range D.species {
		if !s.HasComponents(def.Requirements...) {
			continue
		}
		if err := s.AddDerivedComponent(def); err != nil {
			return ret, err
		}
		ret = append(ret, s.Name())
	}
	D.partDefs = append(D.partDefs, def)
	return ret, nil
}
