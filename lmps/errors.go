/*
 * errors.go, part of gomcmd.
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
	"fmt"

	mcmd "github.com/rmera/gomcmd"
)

//Error is the concrete error type of the lmps package. It satisfies
//mcmd.Error.
type Error struct {
	message  string
	jobname  string
	extra    string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.extra == "" {
		return fmt.Sprintf("%s (%s)", err.message, err.jobname)
	}
	return fmt.Sprintf("%s (%s): %s", err.message, err.jobname, err.extra)
}

//Decorate adds dec to the decoration slice of the error and returns the
//resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical reports whether the error invalidates the run.
func (err Error) Critical() bool { return err.critical }

//errDecorate asserts that err implements mcmd.Error and decorates it with
//the caller's name before returning it.
func errDecorate(err error, caller string) error {
	err2 := err.(mcmd.Error)
	err2.Decorate(caller)
	return err2
}

//Error messages of the lmps package.
const (
	ErrCantInput  = "lmps: cannot write the engine input"
	ErrNotRunning = "lmps: the engine could not be run"
)
