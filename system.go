/*
 * system.go, part of gomcmd.
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

/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package mcmd provides the structural-system model used to hand particle
//configurations between the external simulation engines: particles, particle
//types, simulation boxes and force-field registries, plus the checkpoint
//file formats the engines exchange.
package mcmd

import "fmt"

//ParticleType holds the force-field parameters for one atom type. Types are
//identified by their Name, which is matched exactly (case-sensitive)
//everywhere in the library.
type ParticleType struct {
	Name    string  `json:"name"`
	Mass    float64 `json:"mass"`
	Epsilon float64 `json:"epsilon"`
	Sigma   float64 `json:"sigma"`
	Elem    string  `json:"elem"`
	Desc    string  `json:"desc"`
}

//Copy returns a copy of the ParticleType.
func (T *ParticleType) Copy() *ParticleType {
	if T == nil {
		panic("Attempted to copy a nil ParticleType")
	}
	N := new(ParticleType)
	*N = *T
	return N
}

//Suffixed returns a new ParticleType identical to the receiver but with
//suffix appended to its name. The receiver is not modified.
func (T *ParticleType) Suffixed(suffix string) *ParticleType {
	N := T.Copy()
	N.Name = T.Name + suffix
	return N
}

//Particle is one atom of a structural system. Tag is 1-based and contiguous
//within the owning system. Type, if set, must point into the owning system's
//type registry.
type Particle struct {
	X, Y, Z float64
	Tag     int
	Name    string
	Elem    string
	MolID   int
	Charge  float64
	Fixed   bool //belongs to the fixed framework, excluded from unwrapping
	Type    *ParticleType
}

//Copy returns a copy of the Particle. The Type pointer is shared, not
//cloned; re-binding types to a new registry is the caller's job.
func (P *Particle) Copy() *Particle {
	if P == nil {
		panic("Attempted to copy a nil Particle")
	}
	N := new(Particle)
	*N = *P
	return N
}

//Box is an orthogonal simulation box given by its lower and upper bounds.
type Box struct {
	Lo [3]float64
	Hi [3]float64
}

//NewBox returns a box with the given bounds.
func NewBox(lo, hi [3]float64) *Box {
	return &Box{Lo: lo, Hi: hi}
}

//Lengths returns the box side lengths.
func (B *Box) Lengths() [3]float64 {
	return [3]float64{B.Hi[0] - B.Lo[0], B.Hi[1] - B.Lo[1], B.Hi[2] - B.Lo[2]}
}

//Copy returns a copy of the box.
func (B *Box) Copy() *Box {
	if B == nil {
		return nil
	}
	N := new(Box)
	*N = *B
	return N
}

//System is an in-memory collection of particles together with the registry
//of particle types they reference and the simulation box that contains them.
//Particle tags are 1-based and contiguous; the methods that mutate the
//particle list keep that invariant.
type System struct {
	Particles []*Particle
	Box       *Box
	types     map[string]*ParticleType
	order     []string //type names in registration order
}

//NewSystem returns an empty System.
func NewSystem() *System {
	return &System{types: make(map[string]*ParticleType)}
}

//Len returns the number of particles in the system.
func (S *System) Len() int {
	return len(S.Particles)
}

//Particle returns the particle with the given 1-based tag. It panics if the
//tag is out of range, as asking for a non-existing particle means the
//program is already wrong.
func (S *System) Particle(tag int) *Particle {
	if tag < 1 || tag > len(S.Particles) {
		panic(fmt.Sprintf("mcmd: particle tag %d out of range (system has %d particles)", tag, len(S.Particles)))
	}
	return S.Particles[tag-1]
}

//AddParticle appends p to the system, assigning it the next contiguous tag.
//If p carries a type, the type is registered (or consolidated with an
//already-registered type of the same name) and p is re-bound to the
//registered record.
func (S *System) AddParticle(p *Particle) {
	p.Tag = len(S.Particles) + 1
	if p.Type != nil {
		p.Type = S.AddType(p.Type)
	}
	S.Particles = append(S.Particles, p)
}

//AddType registers t in the system's type registry and returns the
//registered record. If a type with the same name already exists, the
//existing record is returned and t is discarded: types are consolidated by
//exact name. Callers that need to keep same-named types separate must
//rename them first (see ParticleType.Suffixed).
func (S *System) AddType(t *ParticleType) *ParticleType {
	if S.types == nil {
		S.types = make(map[string]*ParticleType)
	}
	if old, ok := S.types[t.Name]; ok {
		return old
	}
	S.types[t.Name] = t
	S.order = append(S.order, t.Name)
	return t
}

//Type returns the registered type with the given name, or nil if there is
//none. Matching is exact and case-sensitive.
func (S *System) Type(name string) *ParticleType {
	return S.types[name]
}

//TypeNames returns the names of the registered types, in registration
//order.
func (S *System) TypeNames() []string {
	r := make([]string, len(S.order))
	copy(r, S.order)
	return r
}

//NTypes returns the number of registered particle types.
func (S *System) NTypes() int {
	return len(S.order)
}

//typeIndex returns the 1-based position of the named type in registration
//order, or 0 if not registered. The checkpoint writers use it to number
//types.
func (S *System) typeIndex(name string) int {
	for i, v := range S.order {
		if v == name {
			return i + 1
		}
	}
	return 0
}

//ResetTags renumbers all particles 1..N in their current order and
//renumbers molecule IDs contiguously, preserving the molecule grouping.
func (S *System) ResetTags() {
	curr := 0
	last := -1
	for i, p := range S.Particles {
		p.Tag = i + 1
		if p.MolID != last {
			last = p.MolID
			curr++
		}
		p.MolID = curr
	}
}

//Copy returns a deep copy of the system. The type registry is cloned and
//the copied particles are re-bound to the cloned records.
func (S *System) Copy() *System {
	N := NewSystem()
	N.Box = S.Box.Copy()
	for _, name := range S.order {
		N.AddType(S.types[name].Copy())
	}
	N.Particles = make([]*Particle, 0, len(S.Particles))
	for _, p := range S.Particles {
		np := p.Copy()
		if np.Type != nil {
			np.Type = N.AddType(np.Type.Copy())
		}
		N.Particles = append(N.Particles, np)
	}
	return N
}

//Merge appends a deep copy of other's particles to the receiver, re-tagging
//them contiguously and shifting their molecule IDs past the receiver's
//largest. Types are consolidated by name into the receiver's registry.
func (S *System) Merge(other *System) {
	molOffset := 0
	for _, p := range S.Particles {
		if p.MolID > molOffset {
			molOffset = p.MolID
		}
	}
	for _, p := range other.Particles {
		np := p.Copy()
		if np.Type != nil {
			np.Type = np.Type.Copy()
		}
		np.MolID += molOffset
		S.AddParticle(np)
	}
	if S.Box == nil {
		S.Box = other.Box.Copy()
	}
}

//SuffixTypes returns a deep copy of the system whose particle types are
//fresh records with suffix appended to their names. The receiver and its
//type records are never modified, so types shared with other systems stay
//intact.
func (S *System) SuffixTypes(suffix string) *System {
	N := NewSystem()
	N.Box = S.Box.Copy()
	for _, name := range S.order {
		N.AddType(S.types[name].Suffixed(suffix))
	}
	for _, p := range S.Particles {
		np := p.Copy()
		if np.Type != nil {
			np.Type = N.Type(np.Type.Name + suffix)
		}
		N.Particles = append(N.Particles, np)
	}
	return N
}

//MergeCoordsFrom copies positions and box dimensions from other into the
//receiver, matching particles by tag. It is used to re-synchronize a
//working system from a checkpoint without rebuilding its topology. It
//returns an error if the systems have different sizes.
func (S *System) MergeCoordsFrom(other *System) error {
	if other.Len() != S.Len() {
		return CError{fmt.Sprintf("mcmd: cannot merge coordinates: %d particles vs %d", other.Len(), S.Len()), []string{"MergeCoordsFrom"}}
	}
	for _, p := range S.Particles {
		o := other.Particle(p.Tag)
		p.X, p.Y, p.Z = o.X, o.Y, o.Z
	}
	if other.Box != nil {
		S.Box = other.Box.Copy()
	}
	return nil
}
