/*
 * geometry.go, part of gomcmd.
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
	"math"

	"gonum.org/v1/gonum/floats"
)

//GeometricCenter returns the unweighted geometric center of all particles
//in the system.
func GeometricCenter(s *System) [3]float64 {
	var c [3]float64
	if s.Len() == 0 {
		return c
	}
	for _, p := range s.Particles {
		floats.Add(c[:], []float64{p.X, p.Y, p.Z})
	}
	floats.Scale(1/float64(s.Len()), c[:])
	return c
}

//Wrap puts every particle back inside the box by applying periodic boundary
//conditions. It panics if the system has no box.
func (S *System) Wrap() {
	if S.Box == nil {
		panic("mcmd: Wrap called on a system without a box")
	}
	l := S.Box.Lengths()
	for _, p := range S.Particles {
		p.X = wrap1(p.X, S.Box.Lo[0], l[0])
		p.Y = wrap1(p.Y, S.Box.Lo[1], l[1])
		p.Z = wrap1(p.Z, S.Box.Lo[2], l[2])
	}
}

func wrap1(x, lo, l float64) float64 {
	return lo + math.Mod(math.Mod(x-lo, l)+l, l)
}

//UnwrapMolecules makes every non-fixed molecule whole across the periodic
//boundaries: within each molecule, every particle is shifted by whole box
//lengths so that it sits in the image closest to the molecule's first
//particle. Fixed (framework) particles are left untouched. It panics if the
//system has no box.
func (S *System) UnwrapMolecules() {
	if S.Box == nil {
		panic("mcmd: UnwrapMolecules called on a system without a box")
	}
	l := S.Box.Lengths()
	anchors := make(map[int]*Particle)
	for _, p := range S.Particles {
		if p.Fixed {
			continue
		}
		a, ok := anchors[p.MolID]
		if !ok {
			anchors[p.MolID] = p
			continue
		}
		p.X = unwrap1(p.X, a.X, l[0])
		p.Y = unwrap1(p.Y, a.Y, l[1])
		p.Z = unwrap1(p.Z, a.Z, l[2])
	}
}

//unwrap1 shifts x by whole box lengths to the periodic image nearest to the
//anchor coordinate.
func unwrap1(x, anchor, l float64) float64 {
	return x - math.Round((x-anchor)/l)*l
}
