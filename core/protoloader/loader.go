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

// Package protoloader turns protobuf messages into grid rows. A repeated
// message field of the root message holds the top-level rows; repeated
// message fields of those messages become child collections, so nested
// messages load as a hierarchy.
package protoloader

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/google/hierarchia/core/records"
)

// Loader parses messages described by a pre-populated proto registry.
type Loader struct {
	registry *protoregistry.Files
}

// NewLoader creates a new Loader with the given proto registry.
// The registry should be pre-populated with all required message descriptors.
func NewLoader(registry *protoregistry.Files) *Loader {
	return &Loader{registry: registry}
}

func (l *Loader) newMessage(messageName string) (*dynamicpb.Message, error) {
	desc, err := l.registry.FindDescriptorByName(protoreflect.FullName(messageName))
	if err != nil {
		return nil, errors.Wrapf(err, "message %q not found in registry", messageName)
	}
	msgDesc, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, errors.Errorf("%q is not a message type", messageName)
	}
	return dynamicpb.NewMessage(msgDesc), nil
}

// ParseTextproto parses textproto data into a dynamic message.
func (l *Loader) ParseTextproto(data []byte, messageName string) (protoreflect.Message, error) {
	msg, err := l.newMessage(messageName)
	if err != nil {
		return nil, err
	}
	// Any fields resolve against our registry.
	opts := prototext.UnmarshalOptions{Resolver: l}
	if err := opts.Unmarshal(data, msg); err != nil {
		return nil, errors.Wrap(err, "failed to parse textproto")
	}
	return msg.ProtoReflect(), nil
}

// ParseBinaryProto parses wire format data into a dynamic message.
func (l *Loader) ParseBinaryProto(data []byte, messageName string) (protoreflect.Message, error) {
	msg, err := l.newMessage(messageName)
	if err != nil {
		return nil, err
	}
	opts := proto.UnmarshalOptions{Resolver: l}
	if err := opts.Unmarshal(data, msg); err != nil {
		return nil, errors.Wrap(err, "failed to parse binary proto")
	}
	return msg.ProtoReflect(), nil
}

// FindMessageByName implements protoregistry.MessageTypeResolver
func (l *Loader) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	desc, err := l.registry.FindDescriptorByName(name)
	if err != nil {
		return nil, err
	}
	msgDesc, ok := desc.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, errors.Errorf("%q is not a message type", name)
	}
	return dynamicpb.NewMessageType(msgDesc), nil
}

// FindMessageByURL implements protoregistry.MessageTypeResolver
func (l *Loader) FindMessageByURL(url string) (protoreflect.MessageType, error) {
	name := url
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		name = url[i+1:]
	}
	return l.FindMessageByName(protoreflect.FullName(name))
}

// FindExtensionByName implements protoregistry.ExtensionTypeResolver
func (l *Loader) FindExtensionByName(name protoreflect.FullName) (protoreflect.ExtensionType, error) {
	return nil, protoregistry.NotFound
}

// FindExtensionByNumber implements protoregistry.ExtensionTypeResolver
func (l *Loader) FindExtensionByNumber(message protoreflect.FullName, field protoreflect.FieldNumber) (protoreflect.ExtensionType, error) {
	return nil, protoregistry.NotFound
}

// RowsField returns the repeated message field of msgDesc holding the rows:
// the field named name, or the first repeated message field when name is
// empty.
func RowsField(msgDesc protoreflect.MessageDescriptor, name string) (protoreflect.FieldDescriptor, error) {
	fields := msgDesc.Fields()
	if name != "" {
		fd := fields.ByName(protoreflect.Name(name))
		if fd == nil {
			return nil, errors.Errorf("message %s has no field %q", msgDesc.FullName(), name)
		}
		if !isRepeatedMessage(fd) {
			return nil, errors.Errorf("field %q of %s is not a repeated message", name, msgDesc.FullName())
		}
		return fd, nil
	}
	for i := 0; i < fields.Len(); i++ {
		if fd := fields.Get(i); isRepeatedMessage(fd) {
			return fd, nil
		}
	}
	return nil, errors.Errorf("message %s has no repeated message field", msgDesc.FullName())
}

func isRepeatedMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Cardinality() == protoreflect.Repeated && !fd.IsMap() &&
		(fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind)
}

// Rows converts the elements of the repeated message field named field of
// msg into rows. An empty field picks the first repeated message field.
func Rows(msg protoreflect.Message, field string) ([]records.Row, error) {
	fd, err := RowsField(msg.Descriptor(), field)
	if err != nil {
		return nil, err
	}
	return listRows(msg.Get(fd).List()), nil
}

func listRows(list protoreflect.List) []records.Row {
	rows := make([]records.Row, list.Len())
	for i := range rows {
		rows[i] = MessageRow(list.Get(i).Message())
	}
	return rows
}

// MessageRow converts one message into a row keyed by field name. Scalar
// fields always appear, with their default when unset. Non-empty repeated
// message fields become child collections and repeated scalars lists.
// Singular message fields and maps are not columns and are skipped.
func MessageRow(msg protoreflect.Message) records.Row {
	row := make(records.Row)
	fields := msg.Descriptor().Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		name := string(fd.Name())
		switch {
		case fd.IsMap():
		case isRepeatedMessage(fd):
			if list := msg.Get(fd).List(); list.Len() > 0 {
				row[name] = listRows(list)
			}
		case fd.Cardinality() == protoreflect.Repeated:
			list := msg.Get(fd).List()
			values := make([]any, list.Len())
			for j := range values {
				values[j] = value(list.Get(j), fd)
			}
			row[name] = values
		case fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind:
		default:
			row[name] = value(msg.Get(fd), fd)
		}
	}
	return row
}

// value converts a scalar to the cell types of a row: numbers become
// float64 and enums their value name.
func value(val protoreflect.Value, fd protoreflect.FieldDescriptor) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return val.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return float64(val.Int())
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return float64(val.Uint())
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return val.Float()
	case protoreflect.StringKind:
		return val.String()
	case protoreflect.BytesKind:
		return string(val.Bytes())
	case protoreflect.EnumKind:
		if enumVal := fd.Enum().Values().ByNumber(val.Enum()); enumVal != nil {
			return string(enumVal.Name())
		}
		return float64(val.Enum())
	default:
		return val.String()
	}
}

// GetRegisteredMessages returns the top-level message names in the
// registry, sorted.
func (l *Loader) GetRegisteredMessages() []string {
	var messages []string
	l.registry.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		msgs := fd.Messages()
		for i := 0; i < msgs.Len(); i++ {
			messages = append(messages, string(msgs.Get(i).FullName()))
		}
		return true
	})
	sort.Strings(messages)
	return messages
}
