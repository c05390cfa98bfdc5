package server

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tejusbharadwaj/meterlens/internal/digest"
	"github.com/tejusbharadwaj/meterlens/internal/models"
	"github.com/tejusbharadwaj/meterlens/internal/service"
	"github.com/tejusbharadwaj/meterlens/internal/source"
	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "meterlens.v1.AnalysisService"

// Full method names, as seen by interceptors.
const (
	MethodParse     = "/" + ServiceName + "/Parse"
	MethodValidate  = "/" + ServiceName + "/Validate"
	MethodSummarize = "/" + ServiceName + "/Summarize"
	MethodTimezones = "/" + ServiceName + "/Timezones"
	MethodPrompt    = "/" + ServiceName + "/Prompt"
)

type ParseRequest struct {
	Document    string `json:"document"`
	CountryHint string `json:"country_hint,omitempty"`
}

type ParseResponse struct {
	Result models.ParseResult `json:"result"`
}

type ValidateRequest struct {
	Document string `json:"document"`
}

// ValidateResponse reports a structural problem in Error rather than as an
// RPC failure.
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Periods int    `json:"periods"`
	Error   string `json:"error,omitempty"`
}

// SummarizeRequest analyzes Document, or the current dataset when Document
// is empty.
type SummarizeRequest struct {
	Document        string `json:"document,omitempty"`
	CountryHint     string `json:"country_hint,omitempty"`
	DisplayTimezone string `json:"display_timezone,omitempty"`
}

type SummarizeResponse struct {
	Report service.Report `json:"report"`
}

type TimezonesRequest struct{}

// TimezonesResponse lists the display zones. Detected is the zone closest to
// the server's local offset.
type TimezonesResponse struct {
	Default  string            `json:"default"`
	Detected string            `json:"detected"`
	Options  []timezone.Option `json:"options"`
	Groups   []timezone.Group  `json:"groups"`
}

// PromptRequest builds chat messages about Document, or the current dataset
// when Document is empty.
type PromptRequest struct {
	Question        string           `json:"question"`
	History         []digest.Message `json:"history,omitempty"`
	MaxHistory      int              `json:"max_history,omitempty"`
	Document        string           `json:"document,omitempty"`
	CountryHint     string           `json:"country_hint,omitempty"`
	DisplayTimezone string           `json:"display_timezone,omitempty"`
}

type PromptResponse struct {
	Messages []digest.Message `json:"messages"`
}

// AnalysisServer is the server API of the analysis service.
type AnalysisServer interface {
	Parse(context.Context, *ParseRequest) (*ParseResponse, error)
	Validate(context.Context, *ValidateRequest) (*ValidateResponse, error)
	Summarize(context.Context, *SummarizeRequest) (*SummarizeResponse, error)
	Timezones(context.Context, *TimezonesRequest) (*TimezonesResponse, error)
	Prompt(context.Context, *PromptRequest) (*PromptResponse, error)
}

// AnalysisService encapsulates business logic
type AnalysisService struct {
	analyzer    *service.Analyzer
	dataset     *source.Dataset
	validator   *service.RequestValidator
	defaultZone string
}

// NewAnalysisService creates a new service instance
func NewAnalysisService(analyzer *service.Analyzer, dataset *source.Dataset, validator *service.RequestValidator, defaultZone string) *AnalysisService {
	if defaultZone == "" {
		defaultZone = timezone.Default
	}
	return &AnalysisService{
		analyzer:    analyzer,
		dataset:     dataset,
		validator:   validator,
		defaultZone: defaultZone,
	}
}

func (s *AnalysisService) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	if err := s.validateDocument(req.Document, req.CountryHint, true); err != nil {
		return nil, err
	}
	result, err := s.analyzer.Parse(ctx, req.Document, req.CountryHint)
	if err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return &ParseResponse{Result: result}, nil
}

func (s *AnalysisService) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	if err := s.validateDocument(req.Document, "", true); err != nil {
		return nil, err
	}
	periods, err := s.analyzer.Validate(ctx, req.Document)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	case err != nil:
		return &ValidateResponse{Error: err.Error()}, nil
	}
	return &ValidateResponse{Valid: true, Periods: periods}, nil
}

func (s *AnalysisService) Summarize(ctx context.Context, req *SummarizeRequest) (*SummarizeResponse, error) {
	if err := s.validator.ValidateTimezone(req.DisplayTimezone); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.resolve(ctx, req.Document, req.CountryHint)
	if err != nil {
		return nil, err
	}
	return &SummarizeResponse{Report: s.analyzer.Summarize(result, req.DisplayTimezone)}, nil
}

func (s *AnalysisService) Timezones(ctx context.Context, req *TimezonesRequest) (*TimezonesResponse, error) {
	return &TimezonesResponse{
		Default:  s.defaultZone,
		Detected: timezone.Detect(time.Now()),
		Options:  timezone.Options(),
		Groups:   timezone.Groups(),
	}, nil
}

func (s *AnalysisService) Prompt(ctx context.Context, req *PromptRequest) (*PromptResponse, error) {
	if err := s.validator.ValidateQuestion(req.Question); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.validator.ValidateTimezone(req.DisplayTimezone); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	result, err := s.resolve(ctx, req.Document, req.CountryHint)
	if err != nil {
		return nil, err
	}
	msgs := s.analyzer.Prompt(req.History, req.Question, result, req.DisplayTimezone, req.MaxHistory)
	return &PromptResponse{Messages: msgs}, nil
}

// resolve parses document, falling back to the current dataset when it is
// empty.
func (s *AnalysisService) resolve(ctx context.Context, document, countryHint string) (models.ParseResult, error) {
	if err := s.validateDocument(document, countryHint, false); err != nil {
		return models.ParseResult{}, err
	}
	if document == "" {
		snap, ok := s.dataset.Snapshot()
		if !ok {
			return models.ParseResult{}, status.Error(codes.FailedPrecondition, source.ErrNoDataset.Error())
		}
		return snap.Result, nil
	}
	result, err := s.analyzer.Parse(ctx, document, countryHint)
	if err != nil {
		return models.ParseResult{}, status.FromContextError(err).Err()
	}
	return result, nil
}

func (s *AnalysisService) validateDocument(document, countryHint string, required bool) error {
	if err := s.validator.ValidateDocument(document, required); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.validator.ValidateCountry(countryHint); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// unaryHandler adapts a typed service method to a grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(AnalysisServer, context.Context, *Req) (*Resp, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalysisServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AnalysisServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AnalysisServiceDesc describes the analysis service for grpc.Server.
var AnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Parse", Handler: unaryHandler(MethodParse, AnalysisServer.Parse)},
		{MethodName: "Validate", Handler: unaryHandler(MethodValidate, AnalysisServer.Validate)},
		{MethodName: "Summarize", Handler: unaryHandler(MethodSummarize, AnalysisServer.Summarize)},
		{MethodName: "Timezones", Handler: unaryHandler(MethodTimezones, AnalysisServer.Timezones)},
		{MethodName: "Prompt", Handler: unaryHandler(MethodPrompt, AnalysisServer.Prompt)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "meterlens/v1/analysis",
}

// RegisterAnalysisServer registers srv on s.
func RegisterAnalysisServer(s grpc.ServiceRegistrar, srv AnalysisServer) {
	s.RegisterService(&AnalysisServiceDesc, srv)
}

// AnalysisClient calls the analysis service using the JSON codec.
type AnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewAnalysisClient(cc grpc.ClientConnInterface) *AnalysisClient {
	return &AnalysisClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AnalysisClient) Parse(ctx context.Context, in *ParseRequest, opts ...grpc.CallOption) (*ParseResponse, error) {
	return invoke[ParseResponse](ctx, c.cc, MethodParse, in, opts)
}

func (c *AnalysisClient) Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidateResponse, error) {
	return invoke[ValidateResponse](ctx, c.cc, MethodValidate, in, opts)
}

func (c *AnalysisClient) Summarize(ctx context.Context, in *SummarizeRequest, opts ...grpc.CallOption) (*SummarizeResponse, error) {
	return invoke[SummarizeResponse](ctx, c.cc, MethodSummarize, in, opts)
}

func (c *AnalysisClient) Timezones(ctx context.Context, in *TimezonesRequest, opts ...grpc.CallOption) (*TimezonesResponse, error) {
	return invoke[TimezonesResponse](ctx, c.cc, MethodTimezones, in, opts)
}

func (c *AnalysisClient) Prompt(ctx context.Context, in *PromptRequest, opts ...grpc.CallOption) (*PromptResponse, error) {
	return invoke[PromptResponse](ctx, c.cc, MethodPrompt, in, opts)
}
