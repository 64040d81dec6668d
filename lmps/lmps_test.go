/*
 * lmps_test.go, part of gomcmd.
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

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	mcmd "github.com/rmera/gomcmd"
)

func smallSystem() *mcmd.System {
	s := mcmd.NewSystem()
	s.Box = mcmd.NewBox([3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	t := &mcmd.ParticleType{Name: "ar", Mass: 39.948, Elem: "Ar"}
	s.AddParticle(&mcmd.Particle{X: 5, Y: 5, Z: 5, MolID: 1, Type: t})
	return s
}

func TestInitBlock(Te *testing.T) {
	b := Init{Cutoff: 14.0, SpecialBonds: "amber", PairModify: "mix arithmetic"}.String()
	for _, want := range []string{
		"units real\n",
		"atom_style full\n",
		"pair_style lj/cut/coul/long 14.0000\n",
		"special_bonds amber\n",
		"pair_modify mix arithmetic\n",
	} {
		if !strings.Contains(b, want) {
			Te.Errorf("Init block is missing %q:\n%s", want, b)
		}
	}
	if !strings.Contains(Init{}.String(), "pair_style lj/cut 12.0") {
		Te.Error("zero cutoff should fall back to plain lj/cut")
	}
}

func TestMolecularDynamicsBlock(Te *testing.T) {
	npt := MolecularDynamics{FixName: "main_fix", Ensemble: "npt", Group: "nonrigid_b",
		Timestep: 1.0, Temp: 300, Pressure: 1.0, Dilate: true}.String()
	if !strings.Contains(npt, "timestep 1.0000\n") {
		Te.Errorf("missing timestep line:\n%s", npt)
	}
	if !strings.Contains(npt, "fix main_fix nonrigid_b npt temp 300.0000 300.0000 100 iso 1.0000 1.0000 1000 dilate all\n") {
		Te.Errorf("bad npt fix line:\n%s", npt)
	}
	rig := MolecularDynamics{FixName: "rig_fix", Ensemble: "rigid/nvt/small molecule", Group: "rigid_b", Temp: 300}.String()
	if strings.Contains(rig, "timestep") {
		Te.Error("a rigid fix without a timestep must not emit a timestep line")
	}
	if !strings.Contains(rig, "fix rig_fix rigid_b rigid/nvt/small molecule temp 300.0000 300.0000 100\n") {
		Te.Errorf("bad rigid fix line:\n%s", rig)
	}
	plain := MolecularDynamics{FixName: "f", Ensemble: "npt", Temp: 1, Pressure: 1}.String()
	if !strings.Contains(plain, "fix f all npt") {
		Te.Error("empty group should default to all")
	}
	if strings.Contains(plain, "dilate") {
		Te.Error("dilate must only appear when requested")
	}
}

func TestVelocityBlock(Te *testing.T) {
	if got := (Velocity{Style: "create", Temp: 300}).String(); got != "velocity all create 300.0000 4928459\n" {
		Te.Errorf("bad create line: %q", got)
	}
	if got := (Velocity{Style: "create", Temp: 300, Seed: 7}).String(); got != "velocity all create 300.0000 7\n" {
		Te.Errorf("explicit seed not honored: %q", got)
	}
	if got := (Velocity{Style: "scale", Temp: 300}).String(); got != "velocity all scale 300.0000\n" {
		Te.Errorf("bad scale line: %q", got)
	}
}

func TestOutputSettingsBlock(Te *testing.T) {
	got := OutputSettings{Thermo: 100, DumpFile: "results/3.md.dump", DumpFreq: 500}.String()
	if !strings.Contains(got, "thermo 100\n") {
		Te.Errorf("missing thermo line: %q", got)
	}
	if !strings.Contains(got, "dump md_dump all atom 500 results/3.md.dump\n") {
		Te.Errorf("bad dump line: %q", got)
	}
	if (OutputSettings{}).String() != "" {
		Te.Error("zero settings should emit nothing")
	}
}

func TestWriteInput(Te *testing.T) {
	sim := NewSimulation(smallSystem(), "results/3.md", "results/3.md.log")
	sim.Add(Group{Name: "matrix", IDs: "1:1"})
	sim.AddCustom("run 1000")
	var buf bytes.Buffer
	if err := sim.WriteInput(&buf); err != nil {
		Te.Fatal(err)
	}
	script := buf.String()
	lines := strings.Split(script, "\n")
	if lines[1] != "log results/3.md.log" {
		Te.Errorf("log line misplaced: %q", lines[1])
	}
	if lines[2] != "read_data results/3.md.data" {
		Te.Errorf("read_data line misplaced: %q", lines[2])
	}
	if !strings.Contains(script, "group matrix id 1:1\n") {
		Te.Error("missing group block")
	}
	//the hand-back command must come last
	if !strings.HasSuffix(strings.TrimSpace(script), "write_data results/3.md.out.data") {
		Te.Errorf("write_data must be the final command:\n%s", script)
	}
	if strings.Index(script, "run 1000") > strings.Index(script, "write_data") {
		Te.Error("blocks must precede the hand-back command")
	}
}

func TestPropsStaged(Te *testing.T) {
	p := &Props{Timestep: FloatSeq{1.0}, Length: IntSeq{10000}}
	if p.Staged() {
		Te.Error("one stage is not a staged run")
	}
	p.Timestep = FloatSeq{0.5, 1.0, 2.0}
	if !p.Staged() {
		Te.Error("three timesteps make a staged run")
	}
}

//TestPropsYAML checks that timestep and length accept both a scalar and a
//sequence in the run file.
func TestPropsYAML(Te *testing.T) {
	scalar := []byte("timestep: 1.0\nlength: 20000\ntemp: 300\nextra:\n  kspace_style: \"pppm 1.0e-4\"\n")
	var p Props
	if err := yaml.Unmarshal(scalar, &p); err != nil {
		Te.Fatal(err)
	}
	if len(p.Timestep) != 1 || p.Timestep[0] != 1.0 {
		Te.Errorf("scalar timestep misparsed: %v", p.Timestep)
	}
	if len(p.Length) != 1 || p.Length[0] != 20000 {
		Te.Errorf("scalar length misparsed: %v", p.Length)
	}
	if p.Extra["kspace_style"] != "pppm 1.0e-4" {
		Te.Errorf("extra keys misparsed: %v", p.Extra)
	}
	seq := []byte("timestep: [0.5, 1.0, 2.0]\nlength: [5000, 10000, 20000]\n")
	var q Props
	if err := yaml.Unmarshal(seq, &q); err != nil {
		Te.Fatal(err)
	}
	if len(q.Timestep) != 3 || q.Timestep[2] != 2.0 {
		Te.Errorf("sequence timestep misparsed: %v", q.Timestep)
	}
	if len(q.Length) != 3 || q.Length[0] != 5000 {
		Te.Errorf("sequence length misparsed: %v", q.Length)
	}
}

func TestSimulationCopies(Te *testing.T) {
	s := smallSystem()
	sim := NewSimulation(s, "x", "x.log")
	sim.System().Particle(1).X = 0
	if s.Particle(1).X != 5 {
		Te.Error("NewSimulation must copy the system, not alias it")
	}
}
