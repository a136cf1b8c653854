// SPDX-License-Identifier: MIT

package rbf

import "github.com/google/uuid"

// Identity is the stable id embedded by value in drivers, inputs and poses.
type Identity struct {
	id uuid.UUID
}

func newIdentity() Identity { return Identity{id: uuid.New()} }

// ID returns the entity id.
func (i Identity) ID() uuid.UUID { return i.id }
