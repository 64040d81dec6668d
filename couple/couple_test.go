/*
 * couple_test.go, part of gomcmd.
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

package couple

import (
	"fmt"
	"os"
	"strings"
	"testing"

	mcmd "github.com/rmera/gomcmd"
	"github.com/rmera/gomcmd/cassandra"
	"github.com/rmera/gomcmd/lmps"
)

//stubMC fakes the Monte-Carlo engine: Run and Resync just bump the
//per-species counts.
type stubMC struct {
	sys      *mcmd.System
	made     []int
	runs     int
	resyncs  int
	starts   [][]int
	species  []*cassandra.Species
	rigidIDs string
}

func (m *stubMC) AddGCMC(species []*cassandra.Species, start []int, runName, outFolder, propsFile string, props *cassandra.Props) error {
	m.species = species
	m.starts = append(m.starts, append([]int(nil), start...))
	return nil
}

func (m *stubMC) Run() error {
	m.runs++
	for i := range m.made {
		m.made[i]++
	}
	return nil
}

func (m *stubMC) Resync(chkLMPS string) error {
	m.resyncs++
	for i := range m.made {
		m.made[i]++
	}
	return nil
}

func (m *stubMC) MadeInsertions() []int {
	r := make([]int, len(m.made))
	copy(r, m.made)
	return r
}

func (m *stubMC) GroupRanges(kind string) string {
	switch kind {
	case "matrix":
		return "1:2"
	case "nonrigid":
		return "3:4"
	case "rigid":
		return m.rigidIDs
	}
	return ""
}

func (m *stubMC) System() *mcmd.System     { return m.sys }
func (m *stubMC) SetSystem(s *mcmd.System) { m.sys = s }

//stubMD fakes one MD job; the factory records the script of the last job
//built.
type stubMD struct {
	sys    *mcmd.System
	script *[]string
	runs   *int
}

func (d *stubMD) Add(b fmt.Stringer)  { *d.script = append(*d.script, b.String()) }
func (d *stubMD) AddCustom(s string)  { *d.script = append(*d.script, s+"\n") }
func (d *stubMD) System() *mcmd.System { return d.sys }

func (d *stubMD) Run(np int, prefix string) error {
	*d.runs++
	return nil
}

func loopSystem() *mcmd.System {
	s := mcmd.NewSystem()
	s.Box = mcmd.NewBox([3]float64{0, 0, 0}, [3]float64{20, 20, 20})
	t := &mcmd.ParticleType{Name: "Si", Mass: 28.0855, Elem: "Si"}
	s.AddParticle(&mcmd.Particle{X: 1, Y: 1, Z: 1, MolID: 1, Fixed: true, Type: t})
	s.AddParticle(&mcmd.Particle{X: 2, Y: 2, Z: 2, MolID: 1, Fixed: true, Type: t})
	s.AddParticle(&mcmd.Particle{X: 3, Y: 3, Z: 3, MolID: 2, Type: &mcmd.ParticleType{Name: "ar", Mass: 39.948, Elem: "Ar"}})
	s.AddParticle(&mcmd.Particle{X: 4, Y: 4, Z: 4, MolID: 3, Type: s.Type("ar")})
	return s
}

func gas() *mcmd.System {
	g := mcmd.NewSystem()
	g.Box = mcmd.NewBox([3]float64{0, 0, 0}, [3]float64{20, 20, 20})
	g.AddParticle(&mcmd.Particle{MolID: 1, Elem: "Ar", Type: &mcmd.ParticleType{Name: "ar", Mass: 39.948, Elem: "Ar"}})
	return g
}

func stockProps() (*cassandra.Props, *lmps.Props) {
	mcp := &cassandra.Props{ChemPots: []float64{-35.0}, Temp: 300}
	mdp := &lmps.Props{Timestep: lmps.FloatSeq{1.0}, Length: lmps.IntSeq{1000}, Temp: 300, Pressure: 1.0, Thermo: 100, Dump: 500}
	return mcp, mdp
}

//mdRecorder returns a factory whose jobs share one run counter and one
//script trace.
func mdRecorder() (MDFactory, *int, *[]string) {
	runs := new(int)
	script := new([]string)
	f := func(sys *mcmd.System, name, logpath string, props *lmps.Props) MDSim {
		*script = (*script)[:0]
		return &stubMD{sys: sys.Copy(), script: script, runs: runs}
	}
	return f, runs, script
}

func TestLoopCheckpoints(Te *testing.T) {
	dir := "test/loop"
	os.RemoveAll(dir)
	mc := &stubMC{sys: loopSystem(), made: []int{0}}
	newMD, mdRuns, _ := mdRecorder()
	mcp, mdp := stockProps()
	rec := &recorder{}
	final, err := MCMD([]*mcmd.System{gas()}, nil, mcp, mdp, &Options{
		Iterations: 3, SimFolder: dir, MC: mc, NewMD: newMD, Collector: rec,
	})
	if err != nil {
		Te.Fatal(err)
	}
	if final == nil {
		Te.Fatal("a completed run must hand back the final system")
	}
	if mc.runs != 3 || *mdRuns != 3 {
		Te.Errorf("expected 3 MC and 3 MD runs, got %d and %d", mc.runs, *mdRuns)
	}
	ck := Checkpoints{Dir: dir}
	for i := 1; i <= 3; i++ {
		if _, err := os.Stat(ck.BeforeMD(i)); err != nil {
			Te.Errorf("missing pre-MD checkpoint for iteration %d", i)
		}
		if _, err := os.Stat(ck.MDOut(i)); err != nil {
			Te.Errorf("missing post-MD checkpoint for iteration %d", i)
		}
	}
	//each iteration starts from the previous one's totals
	wantStarts := [][]int{{1, 0}, {1, 1}, {1, 2}}
	for i, got := range mc.starts {
		if len(got) != 2 || got[0] != wantStarts[i][0] || got[1] != wantStarts[i][1] {
			Te.Errorf("iteration %d started from %v, want %v", i+1, got, wantStarts[i])
		}
	}
	if len(rec.iters) != 3 || rec.iters[2] != 3 || rec.mades[2][0] != 3 {
		Te.Errorf("collector saw %v / %v", rec.iters, rec.mades)
	}
}

type recorder struct {
	iters []int
	mades [][]int
}

func (r *recorder) Record(iter int, made []int) {
	r.iters = append(r.iters, iter)
	r.mades = append(r.mades, append([]int(nil), made...))
}

func TestZeroIterations(Te *testing.T) {
	mc := &stubMC{sys: loopSystem(), made: []int{0}}
	newMD, mdRuns, _ := mdRecorder()
	mcp, mdp := stockProps()
	final, err := MCMD([]*mcmd.System{gas()}, nil, mcp, mdp, &Options{
		SimFolder: "test/zero", MC: mc, NewMD: newMD,
	})
	if err != nil {
		Te.Fatal(err)
	}
	if final != nil {
		Te.Error("zero iterations must produce no final system")
	}
	if mc.runs != 0 || *mdRuns != 0 {
		Te.Error("zero iterations must not run any engine")
	}
}

func TestValidation(Te *testing.T) {
	mcp, mdp := stockProps()
	g := []*mcmd.System{gas()}
	if _, err := MCMD(nil, nil, mcp, mdp, nil); err == nil {
		Te.Error("no gases must be a configuration error")
	}
	if _, err := MCMD(g, nil, nil, mdp, nil); err == nil {
		Te.Error("nil MC settings must be a configuration error")
	}
	if _, err := MCMD(g, nil, &cassandra.Props{}, mdp, nil); err == nil {
		Te.Error("missing chemical potentials must be a configuration error")
	}
	if _, err := MCMD(g, nil, &cassandra.Props{ChemPots: []float64{-1, -2}}, mdp, nil); err == nil {
		Te.Error("a chemical-potential count mismatch must be a configuration error")
	}
	if _, err := MCMD(g, nil, mcp, nil, nil); err == nil {
		Te.Error("nil MD settings must be a configuration error")
	}
	bad := &lmps.Props{Timestep: lmps.FloatSeq{1, 2}, Length: lmps.IntSeq{1000}}
	if _, err := MCMD(g, nil, mcp, bad, nil); err == nil {
		Te.Error("a stage-count mismatch must be a configuration error")
	}
}

//TestRestartResumes checks that a restart over a checkpointed folder redoes
//only the interrupted iteration's MD, re-synchronizing the MC state
//instead of re-running the engine.
func TestRestartResumes(Te *testing.T) {
	dir := "test/restart"
	os.RemoveAll(dir)
	mcp, mdp := stockProps()
	g := []*mcmd.System{gas()}

	first := &stubMC{sys: loopSystem(), made: []int{0}}
	newMD, _, _ := mdRecorder()
	if _, err := MCMD(g, nil, mcp, mdp, &Options{Iterations: 3, SimFolder: dir, MC: first, NewMD: newMD}); err != nil {
		Te.Fatal(err)
	}
	//simulate an interruption after iteration 3's MC phase: a partial MD
	//log exists
	ck := Checkpoints{Dir: dir}
	touch(Te, ck.MDLog(3))
	os.Remove(ck.MDOut(3))

	second := &stubMC{sys: loopSystem(), made: []int{0}}
	newMD2, mdRuns2, _ := mdRecorder()
	final, err := MCMD(g, nil, mcp, mdp, &Options{Iterations: 3, SimFolder: dir, Restart: true, MC: second, NewMD: newMD2})
	if err != nil {
		Te.Fatal(err)
	}
	if final == nil {
		Te.Fatal("the resumed run must hand back a final system")
	}
	if second.resyncs != 1 {
		Te.Errorf("the resumed iteration must resync exactly once, got %d", second.resyncs)
	}
	if second.runs != 0 {
		Te.Errorf("the resumed iteration must not re-run the MC engine, got %d runs", second.runs)
	}
	if *mdRuns2 != 1 {
		Te.Errorf("only iteration 3's MD should be redone, got %d MD runs", *mdRuns2)
	}
	if _, err := os.Stat(ck.MDOut(3)); err != nil {
		Te.Error("the resumed iteration must rewrite its post-MD checkpoint")
	}
}

//TestRestartOverEmptyFolder checks a restart request with nothing to
//resume behaves exactly like a fresh start.
func TestRestartOverEmptyFolder(Te *testing.T) {
	dir := "test/restart_empty"
	os.RemoveAll(dir)
	mc := &stubMC{sys: loopSystem(), made: []int{0}}
	newMD, mdRuns, _ := mdRecorder()
	mcp, mdp := stockProps()
	if _, err := MCMD([]*mcmd.System{gas()}, nil, mcp, mdp, &Options{
		Iterations: 2, SimFolder: dir, Restart: true, MC: mc, NewMD: newMD,
	}); err != nil {
		Te.Fatal(err)
	}
	if mc.resyncs != 0 {
		Te.Error("nothing to resume, so no resync should happen")
	}
	if mc.runs != 2 || *mdRuns != 2 {
		Te.Errorf("expected a plain 2-iteration run, got %d MC and %d MD runs", mc.runs, *mdRuns)
	}
}

func TestSuffixSpecies(Te *testing.T) {
	a := gas()
	b := gas() //chemically identical: same bare type name
	mcp := &cassandra.Props{ChemPots: []float64{-35, -36}, Rigid: []bool{false, true}}
	species := SuffixSpecies([]*mcmd.System{a, b}, mcp)
	if len(species) != 2 {
		Te.Fatalf("expected 2 species, got %d", len(species))
	}
	if species[0].Sys.Type("ar_g1") == nil || species[1].Sys.Type("ar_g2") == nil {
		Te.Errorf("species types not de-duplicated: %v / %v", species[0].Sys.TypeNames(), species[1].Sys.TypeNames())
	}
	if species[0].Sys.Type("ar") != nil {
		Te.Error("the bare name must not survive suffixing")
	}
	if a.Type("ar") == nil || a.Type("ar").Name != "ar" {
		Te.Error("the original gas systems must not be mutated")
	}
	if species[0].ChemPot != -35 || species[1].ChemPot != -36 {
		Te.Error("chemical potentials not mapped by position")
	}
	if species[0].Rigid || !species[1].Rigid {
		Te.Error("rigid flags not mapped by position")
	}
}

func TestBuildMDStagedRigid(Te *testing.T) {
	mc := &stubMC{sys: loopSystem(), made: []int{0}, rigidIDs: "5:6"}
	runs := new(int)
	script := new([]string)
	sim := &stubMD{sys: loopSystem(), script: script, runs: runs}
	mdp := &lmps.Props{Timestep: lmps.FloatSeq{0.5, 1.0}, Length: lmps.IntSeq{5000, 10000},
		Temp: 300, Pressure: 1.0, Thermo: 100, Dump: 500,
		Extra: map[string]string{"kspace_style": "pppm 1.0e-4"}}
	buildMD(sim, mc, mdp, Checkpoints{Dir: "test"}, 3, mc.GroupRanges("rigid"))
	full := strings.Join(*script, "")

	if strings.Count(full, "velocity all create") != 2 {
		Te.Error("each stage must re-initialize velocities")
	}
	if strings.Count(full, "run 0\n") != 2 || strings.Count(full, "velocity all scale") != 2 {
		Te.Error("rigid stages must rescale after a zero-length pre-step")
	}
	for _, want := range []string{
		"group matrix id 1:2\n",
		"group nonrigid_b id 3:4\n",
		"group rigid_b id 5:6\n",
		"kspace_style pppm 1.0e-4\n",
		"fix main_fix_0 nonrigid_b npt",
		"fix main_fix_1 nonrigid_b npt",
		"fix rig_fix_0 rigid_b rigid/nvt/small molecule",
		"dilate all",
		"fix tether_fix_0 matrix spring tether 30.0",
		"run 5000\n",
		"run 10000\n",
		"unfix main_fix_1\n",
		"unfix rig_fix_1\n",
		"unfix tether_fix_1\n",
	} {
		if !strings.Contains(full, want) {
			Te.Errorf("staged rigid script is missing %q", want)
		}
	}
	//every stage cleans up after itself before the next begins
	if strings.Index(full, "unfix main_fix_0") > strings.Index(full, "fix main_fix_1 ") {
		Te.Error("stage 0 fixes must be removed before stage 1 starts")
	}
	if strings.Index(full, "run 5000") > strings.Index(full, "unfix main_fix_0") {
		Te.Error("stage 0 must run before its fixes are removed")
	}
	//the tether anchors at the framework's geometric center (1.5,1.5,1.5)
	if !strings.Contains(full, "spring tether 30.0 1.5000 1.5000 1.5000 0.0") {
		Te.Error("tether not anchored at the matrix center")
	}
}

func TestBuildMDSingleNonrigid(Te *testing.T) {
	mc := &stubMC{sys: loopSystem(), made: []int{0}}
	runs := new(int)
	script := new([]string)
	sim := &stubMD{sys: loopSystem(), script: script, runs: runs}
	mdp := &lmps.Props{Timestep: lmps.FloatSeq{1.0}, Length: lmps.IntSeq{20000}, Temp: 300, Pressure: 1.0}
	buildMD(sim, mc, mdp, Checkpoints{Dir: "test"}, 1, "")
	full := strings.Join(*script, "")
	if strings.Contains(full, "rigid_b") || strings.Contains(full, "rig_fix") {
		Te.Error("no rigid species, no rigid group or fix")
	}
	if !strings.Contains(full, "fix main_fix all npt") {
		Te.Error("with no rigid species the main fix must integrate all")
	}
	if strings.Contains(full, "dilate") {
		Te.Error("dilate is only needed alongside a rigid fix")
	}
	if !strings.Contains(full, "run 20000\n") {
		Te.Error("missing run command")
	}
	if strings.Count(full, "velocity") != 0 {
		Te.Error("a single-stage run keeps the engine's default velocities")
	}
}
