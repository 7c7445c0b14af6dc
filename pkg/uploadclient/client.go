package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/sir_venger/chunkmerge/pkg/uploadproto"
)

type Client interface {
	// Verify Узнать, собран ли файл и какие чанки уже на сервере
	Verify(ctx context.Context, fileHash, fileName string) (uploadproto.VerifyReply, error)
	// UploadChunk Положить один чанк в staging
	UploadChunk(ctx context.Context, fileHash, chunkHash string, r io.Reader) error
	// Merge Собрать файл из чанков
	Merge(ctx context.Context, fileHash, fileName string, chunkSize int64) error
}

// Error описывает отказ сервера, Code совпадает с uploadproto.Code*.
type Error struct {
	Status int
	Code   string
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server replied %d %s: %s", e.Status, e.Code, e.Msg)
}

// IsCode сообщает, что err является отказом сервера с кодом code.
func IsCode(err error, code string) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}

type httpClient struct {
	base string
	c    *http.Client
}

// New создаёт HTTP-клиент сервиса загрузки с базовым адресом base.
func New(base string, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &httpClient{
		base: strings.TrimRight(base, "/"),
		c:    hc,
	}
}

// Verify запрашивает состояние загрузки.
func (h *httpClient) Verify(ctx context.Context, fileHash, fileName string) (uploadproto.VerifyReply, error) {
	var out uploadproto.VerifyReply
	err := h.postJSON(ctx, uploadproto.PathVerify, uploadproto.VerifyRequest{FileHash: fileHash, FileName: fileName}, &out)
	return out, err
}

// Merge просит сервер собрать файл.
func (h *httpClient) Merge(ctx context.Context, fileHash, fileName string, chunkSize int64) error {
	return h.postJSON(ctx, uploadproto.PathMerge, uploadproto.MergeRequest{
		FileHash: fileHash,
		FileName: fileName,
		Size:     chunkSize,
	}, nil)
}

// UploadChunk отправляет чанк multipart-формой; тело формируется потоково.
func (h *httpClient) UploadChunk(ctx context.Context, fileHash, chunkHash string, r io.Reader) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeForm(mw, fileHash, chunkHash, r)
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+uploadproto.PathUpload, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return h.do(req, nil)
}

func writeForm(mw *multipart.Writer, fileHash, chunkHash string, r io.Reader) error {
	if err := mw.WriteField(uploadproto.FieldFileHash, fileHash); err != nil {
		return err
	}
	if err := mw.WriteField(uploadproto.FieldChunkHash, chunkHash); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile(uploadproto.FieldChunk, chunkHash)
	if err != nil {
		return err
	}
	if _, err = io.Copy(fw, r); err != nil {
		return err
	}
	return mw.Close()
}

func (h *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Length", strconv.Itoa(len(b)))

	return h.do(req, out)
}

func (h *httpClient) do(req *http.Request, out any) error {
	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var reply uploadproto.Reply
		body, _ := io.ReadAll(resp.Body)
		if jsonErr := json.Unmarshal(body, &reply); jsonErr != nil {
			reply.Msg = strings.TrimSpace(string(body))
		}
		return &Error{Status: resp.StatusCode, Code: reply.Code, Msg: reply.Msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
