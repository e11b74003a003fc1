package riva

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	protoPackage    = "nvidia.riva.asr"
	recognizeMethod = "/nvidia.riva.asr.RivaSpeechRecognition/Recognize"

	// encodingLinearPCM is nvidia.riva.AudioEncoding.LINEAR_PCM.
	encodingLinearPCM = 1
)

// schema holds the subset of the Riva ASR messages used by the offline Recognize RPC.
// Field numbers match riva_asr.proto; enums are carried as int32, which is wire-compatible.
type schema struct {
	request  protoreflect.MessageDescriptor
	config   protoreflect.MessageDescriptor
	context  protoreflect.MessageDescriptor
	response protoreflect.MessageDescriptor
	result   protoreflect.MessageDescriptor
	alt      protoreflect.MessageDescriptor
}

func buildSchema() (*schema, error) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("murmur/riva_asr_subset.proto"),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("RecognitionConfig",
				field("encoding", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("sample_rate_hertz", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("language_code", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("max_alternatives", 4, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				repeatedMessage("speech_contexts", 6, "SpeechContext"),
				field("audio_channel_count", 7, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("enable_automatic_punctuation", 11, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
				field("model", 13, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			),
			message("SpeechContext",
				repeated(field("phrases", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
				field("boost", 4, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
			),
			message("RecognizeRequest",
				messageField("config", 1, "RecognitionConfig"),
				field("audio", 2, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
			),
			message("SpeechRecognitionAlternative",
				field("transcript", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				field("confidence", 2, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
			),
			message("SpeechRecognitionResult",
				repeatedMessage("alternatives", 1, "SpeechRecognitionAlternative"),
				field("channel_tag", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				field("audio_processed", 3, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
			),
			message("RecognizeResponse",
				repeatedMessage("results", 1, "SpeechRecognitionResult"),
			),
		},
	}

	fd, err := protodesc.NewFile(file, nil)
	if err != nil {
		return nil, fmt.Errorf("build riva descriptors: %w", err)
	}

	messages := fd.Messages()
	return &schema{
		config:   messages.ByName("RecognitionConfig"),
		context:  messages.ByName("SpeechContext"),
		request:  messages.ByName("RecognizeRequest"),
		alt:      messages.ByName("SpeechRecognitionAlternative"),
		result:   messages.ByName("SpeechRecognitionResult"),
		response: messages.ByName("RecognizeResponse"),
	}, nil
}

// newRequest builds a RecognizeRequest for 16kHz mono LINEAR_PCM audio.
func (s *schema) newRequest(cfg Config, pcm []byte) *dynamicpb.Message {
	config := dynamicpb.NewMessage(s.config)
	setField(config, "encoding", protoreflect.ValueOfInt32(encodingLinearPCM))
	setField(config, "sample_rate_hertz", protoreflect.ValueOfInt32(sampleRateHertz))
	setField(config, "language_code", protoreflect.ValueOfString(cfg.LanguageCode))
	setField(config, "max_alternatives", protoreflect.ValueOfInt32(1))
	setField(config, "audio_channel_count", protoreflect.ValueOfInt32(1))
	setField(config, "enable_automatic_punctuation", protoreflect.ValueOfBool(cfg.AutomaticPunctuation))
	setField(config, "model", protoreflect.ValueOfString(cfg.Model))

	contexts := config.Mutable(config.Descriptor().Fields().ByName("speech_contexts")).List()
	for _, phrase := range cfg.SpeechPhrases {
		text := cleanSegment(phrase.Phrase)
		if text == "" {
			continue
		}
		entry := dynamicpb.NewMessage(s.context)
		entry.Mutable(s.context.Fields().ByName("phrases")).List().Append(protoreflect.ValueOfString(text))
		setField(entry, "boost", protoreflect.ValueOfFloat32(phrase.Boost))
		contexts.Append(protoreflect.ValueOfMessage(entry))
	}

	req := dynamicpb.NewMessage(s.request)
	setField(req, "config", protoreflect.ValueOfMessage(config))
	setField(req, "audio", protoreflect.ValueOfBytes(pcm))
	return req
}

// transcripts returns the top alternative of every result, in order.
func (s *schema) transcripts(resp protoreflect.Message) []string {
	results := resp.Get(s.response.Fields().ByName("results")).List()
	alternativesField := s.result.Fields().ByName("alternatives")
	transcriptField := s.alt.Fields().ByName("transcript")

	out := make([]string, 0, results.Len())
	for i := 0; i < results.Len(); i++ {
		alternatives := results.Get(i).Message().Get(alternativesField).List()
		if alternatives.Len() == 0 {
			continue
		}
		out = append(out, alternatives.Get(0).Message().Get(transcriptField).String())
	}
	return out
}

func setField(m *dynamicpb.Message, name protoreflect.Name, value protoreflect.Value) {
	m.Set(m.Descriptor().Fields().ByName(name), value)
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func field(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName(name)),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}

func messageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String("." + protoPackage + "." + typeName)
	return f
}

func repeatedMessage(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	return repeated(messageField(name, number, typeName))
}

func repeated(f *descriptorpb.FieldDescriptorProto) *descriptorpb.FieldDescriptorProto {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

// jsonName mirrors protoc's lowerCamelCase conversion.
func jsonName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch == '_' {
			upper = true
			continue
		}
		if upper && ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upper = false
		out = append(out, ch)
	}
	return string(out)
}
