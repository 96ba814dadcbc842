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
	"bytes"
	"context"
	"fmt"

	"vost.dev/vost/object"
)

// Writer streams content into a single path, deferring the commit until
// Close. It is a thin convenience over Apply for callers that already have
// an io.Writer-shaped source (e.g. an io.Copy from a network connection)
// and would rather not buffer the whole file themselves first... except
// vost always needs the whole blob to compute its hash, so Writer buffers
// internally; the benefit is purely in presenting an io.WriteCloser shape
// to callers that expect one.
type Writer struct {
	base    Fs
	batch   *Batch
	path    string
	mode    object.Mode
	buf     bytes.Buffer
	message string
	ctx     context.Context
	closed  bool
}

// Writer opens a streaming writer for path against fs. The commit is made
// when Close is called; message is used as that commit's message.
func (fs Fs) Writer(ctx context.Context, path, message string) *Writer {
	return &Writer{base: fs, path: path, mode: object.ModePlain, message: message, ctx: ctx}
}

// WriterMode is Writer with an explicit tree mode.
func (fs Fs) WriterMode(ctx context.Context, path string, mode object.Mode, message string) *Writer {
	return &Writer{base: fs, path: path, mode: mode, message: message, ctx: ctx}
}

// Write implements io.Writer, buffering content until Close.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("vost: write %q: %w", w.path, BatchClosed)
	}
	return w.buf.Write(p)
}

// Close commits the buffered content as a single write and returns the
// resulting snapshot. Close must only be called once.
func (w *Writer) Close() (Fs, error) {
	if w.closed {
		return Fs{}, fmt.Errorf("vost: write %q: %w", w.path, BatchClosed)
	}
	w.closed = true
	return w.base.Apply(w.ctx, []WriteOp{{Path: w.path, Content: w.buf.Bytes(), Mode: w.mode}}, nil, w.message)
}

// Writer opens a streaming writer for path within the batch, staged
// alongside whatever else the batch accumulates. Unlike Fs.Writer, closing
// it does not commit by itself; the batch's own Commit does.
func (b *Batch) Writer(path string, mode object.Mode) *batchWriter {
	return &batchWriter{batch: b, path: path, mode: mode}
}

type batchWriter struct {
	batch  *Batch
	path   string
	mode   object.Mode
	buf    bytes.Buffer
	closed bool
}

// Write implements io.Writer, buffering content until Close.
func (w *batchWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("vost: write %q: %w", w.path, BatchClosed)
	}
	return w.buf.Write(p)
}

// Close stages the buffered content as a write in the parent batch.
func (w *batchWriter) Close() error {
	if w.closed {
		return fmt.Errorf("vost: write %q: %w", w.path, BatchClosed)
	}
	w.closed = true
	return w.batch.WriteMode(w.path, w.buf.Bytes(), w.mode)
}
