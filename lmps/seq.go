/*
 * seq.go, part of gomcmd.
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

package lmps

import "gopkg.in/yaml.v3"

//The timestep/length keys accept either a single value or a staged
//sequence. These two types make both spellings decode into a slice.

//FloatSeq is a []float64 that also decodes from a single YAML scalar.
type FloatSeq []float64

func (s *FloatSeq) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var v []float64
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = v
		return nil
	}
	var v float64
	if err := value.Decode(&v); err != nil {
		return err
	}
	*s = FloatSeq{v}
	return nil
}

//IntSeq is a []int that also decodes from a single YAML scalar.
type IntSeq []int

func (s *IntSeq) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var v []int
		if err := value.Decode(&v); err != nil {
			return err
		}
		*s = v
		return nil
	}
	var v int
	if err := value.Decode(&v); err != nil {
		return err
	}
	*s = IntSeq{v}
	return nil
}
