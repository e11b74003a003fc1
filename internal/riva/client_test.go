package riva

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestAppendSegmentDedupAndPrefixMerge(t *testing.T) {
	segments := appendSegment(nil, "hello")
	require.Equal(t, []string{"hello"}, segments)

	segments = appendSegment(segments, "hello")
	require.Equal(t, []string{"hello"}, segments)

	segments = appendSegment(segments, "hello  world")
	require.Equal(t, []string{"hello world"}, segments)

	segments = appendSegment(segments, "hello")
	require.Equal(t, []string{"hello world"}, segments)

	segments = appendSegment(segments, "new sentence")
	require.Equal(t, []string{"hello world", "new sentence"}, segments)

	segments = appendSegment(segments, " \n ")
	require.Equal(t, []string{"hello world", "new sentence"}, segments)
}

func TestCleanSegment(t *testing.T) {
	require.Equal(t, "hello world", cleanSegment("  hello\n world  "))
	require.Empty(t, cleanSegment("   \n\t"))
}

func TestJSONName(t *testing.T) {
	require.Equal(t, "sampleRateHertz", jsonName("sample_rate_hertz"))
	require.Equal(t, "audio", jsonName("audio"))
}

func TestTranscribeSendsRecognizeRequest(t *testing.T) {
	server := &testRivaServer{transcripts: []string{"hello world", "", "second phrase."}}
	endpoint := startTestRivaServer(t, server)

	client := New(Config{
		Endpoint:             endpoint,
		LanguageCode:         "en-US",
		Model:                " parakeet ",
		AutomaticPunctuation: true,
		SpeechPhrases: []SpeechPhrase{
			{Phrase: "  Murmur  ", Boost: 12},
			{Phrase: "", Boost: 20},
		},
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text, err := client.Transcribe(ctx, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, "Hello world second phrase.", text)

	require.Equal(t, recognizeMethod, server.method)
	require.Equal(t, []byte{1, 2, 3, 4}, server.audio)
	require.Equal(t, int32(encodingLinearPCM), server.encoding)
	require.Equal(t, int32(16000), server.sampleRate)
	require.Equal(t, int32(1), server.channels)
	require.Equal(t, "en-US", server.language)
	require.Equal(t, "parakeet", server.model)
	require.True(t, server.punctuation)
	require.Equal(t, []string{"Murmur"}, server.phrases)
	require.Equal(t, []float32{12}, server.boosts)
}

func TestTranscribeTrailingSpace(t *testing.T) {
	server := &testRivaServer{transcripts: []string{"done"}}
	endpoint := startTestRivaServer(t, server)

	text, err := New(Config{Endpoint: endpoint, TrailingSpace: true}).Transcribe(context.Background(), []byte{1})
	require.NoError(t, err)
	require.Equal(t, "Done ", text)
	require.Equal(t, "en-US", server.language)
}

func TestTranscribeEmptyResultIsEmptyText(t *testing.T) {
	endpoint := startTestRivaServer(t, &testRivaServer{})

	text, err := New(Config{Endpoint: endpoint, TrailingSpace: true}).Transcribe(context.Background(), []byte{1})
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestTranscribeReturnsServerError(t *testing.T) {
	endpoint := startTestRivaServer(t, &testRivaServer{err: status.Error(codes.Internal, "boom")})

	_, err := New(Config{Endpoint: endpoint}).Transcribe(context.Background(), []byte{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	_, err := New(Config{Endpoint: "127.0.0.1:1"}).Transcribe(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoAudio)
}

func TestTranscribeEmptyEndpoint(t *testing.T) {
	_, err := New(Config{Endpoint: "   "}).Transcribe(context.Background(), []byte{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "endpoint is empty")
}

func TestProbe(t *testing.T) {
	endpoint := startTestRivaServer(t, &testRivaServer{})
	require.NoError(t, Probe(context.Background(), endpoint, 2*time.Second))

	err := Probe(context.Background(), "127.0.0.1:1", 100*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "readiness")
}

// testRivaServer answers Recognize through an unknown-service handler so the test
// speaks the same dynamic messages as the client.
type testRivaServer struct {
	transcripts []string
	err         error

	method      string
	audio       []byte
	encoding    int32
	sampleRate  int32
	channels    int32
	language    string
	model       string
	punctuation bool
	phrases     []string
	boosts      []float32
}

func (s *testRivaServer) handle(_ any, stream grpc.ServerStream) error {
	schema, err := buildSchema()
	if err != nil {
		return err
	}
	s.method, _ = grpc.MethodFromServerStream(stream)

	req := dynamicpb.NewMessage(schema.request)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	s.record(req)
	if s.err != nil {
		return s.err
	}

	resp := dynamicpb.NewMessage(schema.response)
	results := resp.Mutable(schema.response.Fields().ByName("results")).List()
	for _, text := range s.transcripts {
		result := dynamicpb.NewMessage(schema.result)
		alternatives := result.Mutable(schema.result.Fields().ByName("alternatives")).List()
		if text != "" {
			alt := dynamicpb.NewMessage(schema.alt)
			setField(alt, "transcript", protoreflect.ValueOfString(text))
			alternatives.Append(protoreflect.ValueOfMessage(alt))
		}
		results.Append(protoreflect.ValueOfMessage(result))
	}
	return stream.SendMsg(resp)
}

func (s *testRivaServer) record(req *dynamicpb.Message) {
	get := func(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
		return m.Get(m.Descriptor().Fields().ByName(name))
	}

	s.audio = get(req, "audio").Bytes()
	cfg := get(req, "config").Message()
	s.encoding = int32(get(cfg, "encoding").Int())
	s.sampleRate = int32(get(cfg, "sample_rate_hertz").Int())
	s.channels = int32(get(cfg, "audio_channel_count").Int())
	s.language = get(cfg, "language_code").String()
	s.model = get(cfg, "model").String()
	s.punctuation = get(cfg, "enable_automatic_punctuation").Bool()

	contexts := get(cfg, "speech_contexts").List()
	for i := 0; i < contexts.Len(); i++ {
		entry := contexts.Get(i).Message()
		phrases := get(entry, "phrases").List()
		for j := 0; j < phrases.Len(); j++ {
			s.phrases = append(s.phrases, phrases.Get(j).String())
		}
		s.boosts = append(s.boosts, float32(get(entry, "boost").Float()))
	}
}

func startTestRivaServer(t *testing.T, srv *testRivaServer) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	grpcServer := grpc.NewServer(grpc.UnknownServiceHandler(srv.handle))
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(func() {
		grpcServer.Stop()
		_ = lis.Close()
	})

	return lis.Addr().String()
}
