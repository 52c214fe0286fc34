/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Hierarchia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package datasources

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/google/hierarchia/core/protoloader"
	"github.com/google/hierarchia/core/records"
)

// ProtoLoader implements Loader for protobuf files. The rows are the
// elements of a repeated message field of the root message; nested
// repeated messages load as child collections.
//
// Required config keys:
//   - file_path: Path to the data file (.textproto, .txtpb or .binpb)
//   - message_type: Fully qualified root message name
//
// Optional config keys:
//   - descriptor_set: Path to a serialized FileDescriptorSet describing the
//     message
//   - format: "textproto" or "binary" (inferred from the extension if not
//     specified)
//   - field: Repeated message field of the root message holding the rows;
//     the first one when empty
type ProtoLoader struct {
	mu       sync.RWMutex
	registry *protoregistry.Files
	loader   *protoloader.Loader

	// Track loaded descriptor sets to avoid duplicates
	loadedDescriptors map[string]bool
}

// NewProtoLoader creates a new proto loader with an empty registry.
func NewProtoLoader() *ProtoLoader {
	registry := new(protoregistry.Files)
	return &ProtoLoader{
		registry:          registry,
		loader:            protoloader.NewLoader(registry),
		loadedDescriptors: make(map[string]bool),
	}
}

// SourceType returns "proto".
func (l *ProtoLoader) SourceType() string {
	return "proto"
}

// Load parses the message and returns its rows.
func (l *ProtoLoader) Load(config map[string]string) ([]records.Row, error) {
	path, err := filePath(config)
	if err != nil {
		return nil, err
	}
	messageType := config["message_type"]
	if messageType == "" {
		return nil, errors.New("message_type is required")
	}
	if descriptorSet := config["descriptor_set"]; descriptorSet != "" {
		if err := l.LoadDescriptorSet(descriptorSet); err != nil {
			return nil, err
		}
	}

	format := config["format"]
	if format == "" {
		switch filepath.Ext(path) {
		case ".textproto", ".txtpb":
			format = "textproto"
		default:
			format = "binary"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read proto file")
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	var msg protoreflect.Message
	switch format {
	case "textproto":
		msg, err = l.loader.ParseTextproto(data, messageType)
	case "binary":
		msg, err = l.loader.ParseBinaryProto(data, messageType)
	default:
		return nil, errors.Errorf("unknown format %q (expected textproto or binary)", format)
	}
	if err != nil {
		return nil, err
	}
	return protoloader.Rows(msg, config["field"])
}

// LoadDescriptorSet loads a serialized FileDescriptorSet file into the
// registry.
func (l *ProtoLoader) LoadDescriptorSet(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loadedDescriptors[path] {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read descriptor set")
	}
	if err := l.loadDescriptorSetFromBytes(data); err != nil {
		return err
	}
	l.loadedDescriptors[path] = true
	return nil
}

// LoadDescriptorSetFromBytes loads a serialized FileDescriptorSet.
func (l *ProtoLoader) LoadDescriptorSetFromBytes(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadDescriptorSetFromBytes(data)
}

func (l *ProtoLoader) loadDescriptorSetFromBytes(data []byte) error {
	fds := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, fds); err != nil {
		return errors.Wrap(err, "failed to unmarshal descriptor set")
	}
	files, err := protodesc.NewFiles(fds)
	if err != nil {
		return errors.Wrap(err, "failed to create file descriptors")
	}

	var registerErr error
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if _, err := l.registry.FindFileByPath(fd.Path()); err == nil {
			return true // Already registered
		}
		if err := l.registry.RegisterFile(fd); err != nil {
			registerErr = err
			return false
		}
		return true
	})
	return registerErr
}

// GetRegisteredMessages returns all message names registered in the loader.
func (l *ProtoLoader) GetRegisteredMessages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loader.GetRegisteredMessages()
}
