/*
 * forcefield.go, part of gomcmd.
 *
 * Copyright 2022 Raul Mera <rmeraatusachdotcl>
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
 */

package mcmd

import (
	"encoding/json"
	"os"
)

//Forcefield is a read-only registry of particle types belonging to one
//force field. Scheme names the atom-typing scheme whose type names the
//registry is keyed by (e.g. "gaff", "gaff2").
type Forcefield struct {
	Name   string
	Scheme string
	types  map[string]*ParticleType
	order  []string
}

//NewForcefield returns an empty force field with the given name and typing
//scheme.
func NewForcefield(name, scheme string) *Forcefield {
	return &Forcefield{Name: name, Scheme: scheme, types: make(map[string]*ParticleType)}
}

//AddType registers t in the force field. A type with an already-registered
//name silently replaces the previous record.
func (F *Forcefield) AddType(t *ParticleType) {
	if _, ok := F.types[t.Name]; !ok {
		F.order = append(F.order, t.Name)
	}
	F.types[t.Name] = t
}

//Type returns the type with the given name, or nil if the force field does
//not contain it. Matching is exact and case-sensitive.
func (F *Forcefield) Type(name string) *ParticleType {
	return F.types[name]
}

//TypeNames returns the registered type names in registration order.
func (F *Forcefield) TypeNames() []string {
	r := make([]string, len(F.order))
	copy(r, F.order)
	return r
}

//ffFile is the on-disk JSON layout of a force-field library file.
type ffFile struct {
	Name          string          `json:"name"`
	Scheme        string          `json:"scheme"`
	ParticleTypes []*ParticleType `json:"particle_types"`
}

//ReadForcefield reads a force-field library from a JSON file with the
//layout {"name":..., "scheme":..., "particle_types":[...]}.
func ReadForcefield(path string) (*Forcefield, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, CError{"mcmd: " + err.Error(), []string{"ReadForcefield"}}
	}
	var f ffFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, CError{"mcmd: cannot parse forcefield file " + path + ": " + err.Error(), []string{"json.Unmarshal", "ReadForcefield"}}
	}
	F := NewForcefield(f.Name, f.Scheme)
	for _, t := range f.ParticleTypes {
		F.AddType(t)
	}
	return F, nil
}

//WriteForcefield writes the force field as a JSON library file readable by
//ReadForcefield.
func (F *Forcefield) WriteForcefield(path string) error {
	f := ffFile{Name: F.Name, Scheme: F.Scheme}
	for _, n := range F.order {
		f.ParticleTypes = append(f.ParticleTypes, F.types[n])
	}
	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return CError{"mcmd: " + err.Error(), []string{"json.MarshalIndent", "WriteForcefield"}}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return CError{"mcmd: " + err.Error(), []string{"WriteForcefield"}}
	}
	return nil
}
