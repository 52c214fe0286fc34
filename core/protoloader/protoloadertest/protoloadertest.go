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

// Package protoloadertest provides a small organization schema for tests of
// proto data sources.
package protoloadertest

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// OrgMessage is the root message of OrgTextproto.
const OrgMessage = "hierarchia.test.Org"

// OrgTextproto holds two top-level employees, the first with a chain of two
// reports.
const OrgTextproto = `
name: "Acme"
employees {
  id: 1
  name: "Casey"
  level: SENIOR
  tags: "exec"
  reports {
    id: 2
    name: "Gilberto"
    on_pto: true
    reports { id: 3 name: "Tanya" }
  }
}
employees { id: 12 name: "Roland" }
`

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, label descriptorpb.FieldDescriptorProto_Label, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Type:   typ.Enum(),
		Label:  label.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

// OrgFile describes:
//
//	enum Level { LEVEL_UNSPECIFIED = 0; SENIOR = 1; }
//	message Employee {
//	  int64 id = 1; string name = 2; bool on_pto = 3; Level level = 4;
//	  repeated string tags = 5; repeated Employee reports = 6;
//	}
//	message Org { string name = 1; repeated Employee employees = 2; }
func OrgFile() *descriptorpb.FileDescriptorProto {
	const (
		optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	)
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("hierarchia/test/org.proto"),
		Package: proto.String("hierarchia.test"),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Level"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("LEVEL_UNSPECIFIED"), Number: proto.Int32(0)},
				{Name: proto.String("SENIOR"), Number: proto.Int32(1)},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Employee"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64, optional, ""),
					field("name", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					field("on_pto", 3, descriptorpb.FieldDescriptorProto_TYPE_BOOL, optional, ""),
					field("level", 4, descriptorpb.FieldDescriptorProto_TYPE_ENUM, optional, ".hierarchia.test.Level"),
					field("tags", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING, repeated, ""),
					field("reports", 6, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, repeated, ".hierarchia.test.Employee"),
				},
			},
			{
				Name: proto.String("Org"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING, optional, ""),
					field("employees", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, repeated, ".hierarchia.test.Employee"),
				},
			},
		},
	}
}

// OrgDescriptorSet returns OrgFile as a serialized FileDescriptorSet.
func OrgDescriptorSet() ([]byte, error) {
	return proto.Marshal(&descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{OrgFile()},
	})
}

// OrgRegistry returns a registry holding OrgFile.
func OrgRegistry() (*protoregistry.Files, error) {
	fd, err := protodesc.NewFile(OrgFile(), nil)
	if err != nil {
		return nil, err
	}
	registry := new(protoregistry.Files)
	if err := registry.RegisterFile(fd); err != nil {
		return nil, err
	}
	return registry, nil
}
