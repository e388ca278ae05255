// Package ginbind plugs structqs into gin's request binding.
//
// Query binds the raw URL query and Form binds an
// application/x-www-form-urlencoded body, both with nested keys,
// comma-joined sequences and variants. After decoding, gin's configured
// binding.Validator runs, so `binding:"required"` tags keep working.
//
//	r.GET("/search", func(c *gin.Context) {
//	    var p SearchParams
//	    if err := ginbind.ShouldBindQuery(c, &p); err != nil {
//	        c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
//	        return
//	    }
//	})
package ginbind

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/wippyai/structqs"
	"github.com/wippyai/structqs/errors"
)

var (
	// Query binds the URL query with the default codec.
	Query = QueryBinding{}
	// Form binds a url-encoded request body with the default codec.
	Form = FormBinding{}
)

var (
	_ binding.Binding     = QueryBinding{}
	_ binding.Binding     = FormBinding{}
	_ binding.BindingBody = FormBinding{}
)

var defaultCodec = structqs.New(structqs.DefaultConfig())

func codecOr(c *structqs.Codec) *structqs.Codec {
	if c == nil {
		return defaultCodec
	}
	return c
}

func validate(obj any) error {
	if binding.Validator == nil {
		return nil
	}
	return binding.Validator.ValidateStruct(obj)
}

// QueryBinding decodes req.URL.RawQuery. A nil Codec uses the defaults.
type QueryBinding struct {
	Codec *structqs.Codec
}

func (QueryBinding) Name() string {
	return "structqs-query"
}

func (b QueryBinding) Bind(req *http.Request, obj any) error {
	if err := codecOr(b.Codec).UnmarshalString(req.URL.RawQuery, obj); err != nil {
		return err
	}
	return validate(obj)
}

// FormBinding decodes a url-encoded request body. A nil Codec uses the
// defaults. When the codec sets MaxInputSize, bodies over the limit are
// rejected without being read in full.
type FormBinding struct {
	Codec *structqs.Codec
}

func (FormBinding) Name() string {
	return "structqs-form"
}

func (b FormBinding) Bind(req *http.Request, obj any) error {
	if req == nil || req.Body == nil {
		return errors.InvalidInput(errors.PhaseParse, "request has no body")
	}
	c := codecOr(b.Codec)

	var r io.Reader = req.Body
	if limit := c.Config().MaxInputSize; limit > 0 {
		r = io.LimitReader(req.Body, int64(limit)+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "reading request body")
	}
	return b.bindBody(c, body, obj)
}

func (b FormBinding) BindBody(body []byte, obj any) error {
	return b.bindBody(codecOr(b.Codec), body, obj)
}

func (FormBinding) bindBody(c *structqs.Codec, body []byte, obj any) error {
	if err := c.Unmarshal(body, obj); err != nil {
		return err
	}
	return validate(obj)
}

// ShouldBindQuery binds the request query into obj with the default codec.
func ShouldBindQuery(c *gin.Context, obj any) error {
	return c.ShouldBindWith(obj, Query)
}

// ShouldBindForm binds the url-encoded request body into obj with the
// default codec.
func ShouldBindForm(c *gin.Context, obj any) error {
	return c.ShouldBindWith(obj, Form)
}
