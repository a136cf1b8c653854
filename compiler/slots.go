// SPDX-License-Identifier: MIT

package compiler

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/katalvlaran/posespace/host"
	"github.com/katalvlaran/posespace/rbf"
)

// SlotPrefix starts every slot name the compiler owns.
const SlotPrefix = "rbfn"

// Slot kinds. Each driver owns one slot per kind, named by SlotName.
const (
	KindInfluence = "pinf"
	KindRadius    = "prad"
	KindVarMatrix = "dvmat"
	KindDistance  = "pdst"
	KindAverage   = "pavg"
	KindWeight    = "pwgt"
	KindSum       = "wsum"
	KindNorm      = "norm"
	KindSolved    = "solv"
)

// Annotation keys written on the final weight cell of every pose.
const (
	NotePose   = "rbfn.pose"
	NoteDriver = "rbfn.driver"
)

var (
	// per-pose slots, one entry per pose
	poseKinds = []string{KindInfluence, KindAverage, KindWeight, KindNorm, KindSolved}
	// input-major blocks of one entry per pose
	blockKinds = []string{KindRadius, KindDistance}
	allKinds   = []string{
		KindInfluence, KindRadius, KindVarMatrix, KindDistance, KindAverage,
		KindWeight, KindSum, KindNorm, KindSolved,
	}
)

// SlotName returns the slot of the given kind owned by driver.
func SlotName(kind string, driver uuid.UUID) string {
	return fmt.Sprintf("%s_%s_%s", SlotPrefix, kind, driver)
}

// WeightRef returns the cell holding the final weight of p: the solved slot
// under linear smoothing, the normalized slot otherwise.
func WeightRef(p *rbf.Pose) host.SlotRef {
	d := p.Driver()
	kind := KindNorm
	if d.Smoothing() == rbf.Linear {
		kind = KindSolved
	}

	return host.SlotRef{Slot: SlotName(kind, d.ID()), Index: p.Index()}
}

func ref(kind string, driver uuid.UUID, i int) host.SlotRef {
	return host.SlotRef{Slot: SlotName(kind, driver), Index: i}
}

func cell(name string, r host.SlotRef) host.Binding {
	return host.Binding{Name: name, Kind: host.BindCell, Cell: r}
}

// insertAt grows name by one and moves the new entry to pos. Missing slots
// are left alone.
func insertAt(tx host.Tx, name string, pos int, fill float64) error {
	l := tx.Len(name)
	if l < 0 {
		return nil
	}
	if err := tx.Ensure(name, l+1, fill); err != nil {
		return err
	}

	return tx.Move(name, l, pos)
}

func deleteSlots(tx host.Tx, driver uuid.UUID) error {
	for _, k := range allKinds {
		if err := tx.Delete(SlotName(k, driver)); err != nil {
			return err
		}
	}

	return nil
}
