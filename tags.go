// Copyright 2024 The Vost Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package vost

import (
	"fmt"
	"time"

	"vost.dev/vost/githash"
	"vost.dev/vost/object"
)

// CreateTag writes an annotated tag object pointing at target and points
// the named tag ref at it. Unlike a lightweight tag (a tag ref pointing
// directly at a commit, which no RefDict method writes), an annotated tag
// records its own tagger, timestamp, and message, the same way git tag -a
// does.
//
// It fails with KeyExists if the tag already exists.
func (d *RefDict) CreateTag(name string, target githash.SHA1, message string) error {
	ref := githash.TagRef(name)
	if _, ok, err := d.store.refs.GetRef(ref); err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	} else if ok {
		return fmt.Errorf("vost: create tag %q: %w", name, KeyExists)
	}

	if _, err := d.store.loadCommit(target); err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	}

	user, err := d.store.cfg.signature.user()
	if err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	}
	tag := &object.Tag{
		ObjectID:   target,
		ObjectType: object.TypeCommit,
		Name:       name,
		Tagger:     user,
		Time:       time.Now(),
		Message:    message,
	}
	data, err := tag.MarshalText()
	if err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	}
	id, err := d.store.writeObject(object.TypeTag, data)
	if err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	}
	if err := d.store.refs.SetRefCAS(ref, false, githash.SHA1{}, id); err != nil {
		return fmt.Errorf("vost: create tag %q: %w", name, err)
	}
	return nil
}

// DeleteTag removes a tag unconditionally.
func (d *RefDict) DeleteTag(name string) error {
	ref := githash.TagRef(name)
	id, ok, err := d.store.refs.GetRef(ref)
	if err != nil {
		return fmt.Errorf("vost: delete tag %q: %w", name, err)
	}
	if !ok {
		return nil
	}
	if err := d.store.refs.DeleteRefCAS(ref, id); err != nil {
		return fmt.Errorf("vost: delete tag %q: %w", name, err)
	}
	return nil
}
