package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menugen-studio/internal/gallery"
	"menugen-studio/internal/imagedata"
	"menugen-studio/internal/studio"
	"menugen-studio/internal/style"
)

type SessionResponse struct {
	SessionID string         `json:"session_id"`
	Style     style.ID       `json:"style"`
	Dishes    []gallery.Dish `json:"dishes"`
}

type StylesResponse struct {
	Styles   []style.Style `json:"styles"`
	Selected style.ID      `json:"selected,omitempty"`
}

type DishesResponse struct {
	Dishes []gallery.Dish `json:"dishes"`
}

type DishResponse struct {
	Dish gallery.Dish `json:"dish"`
}

type parseMenuRequest struct {
	Text string `json:"text"`
}

type selectStyleRequest struct {
	Style string `json:"style" binding:"required"`
}

type editRequest struct {
	Instruction string `json:"instruction"`
}

type referenceRequest struct {
	Image string `json:"image" binding:"required"`
}

func (s *Server) createSession(c *gin.Context) {
	sess := s.reg.Create()
	c.Header(SessionHeader, sess.ID)
	c.JSON(http.StatusCreated, sessionResponse(sess))
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResponse(session(c)))
}

func sessionResponse(sess *studio.Session) SessionResponse {
	snap := sess.Snapshot()
	return SessionResponse{SessionID: sess.ID, Style: snap.Style, Dishes: snap.Dishes}
}

func (s *Server) listStyles(c *gin.Context) {
	resp := StylesResponse{Styles: style.All()}
	if id := c.GetHeader(SessionHeader); id != "" {
		if sess, ok := s.reg.Get(id); ok {
			resp.Selected = sess.Style()
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) selectStyle(c *gin.Context) {
	var req selectStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "A style is required")
		return
	}
	id, ok := style.Parse(req.Style)
	if !ok {
		writeError(c, studio.ErrUnknownStyle)
		return
	}
	if err := session(c).SelectStyle(id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"style": id, "label": id.Label()})
}

// parseMenu runs synchronously: the page waits for the gallery, as the
// front-end disables the form while parsing.
func (s *Server) parseMenu(c *gin.Context) {
	var req parseMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with a text field")
		return
	}

	dishes, err := session(c).ParseMenu(context.WithoutCancel(c.Request.Context()), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, DishesResponse{Dishes: dishes})
}

func (s *Server) listDishes(c *gin.Context) {
	c.JSON(http.StatusOK, DishesResponse{Dishes: session(c).Dishes()})
}

func (s *Server) getDish(c *gin.Context) {
	d, err := session(c).Dish(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, DishResponse{Dish: d})
}

// uploadReference accepts either a multipart "image" file or a JSON body
// carrying a data URL.
func (s *Server) uploadReference(c *gin.Context) {
	var (
		img imagedata.Image
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		img, err = s.readMultipartImage(c)
	} else {
		img, err = s.readDataURLImage(c)
	}
	if err != nil {
		if errors.Is(err, errTooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("File size exceeds %dMB limit", s.maxUpload>>20))
			return
		}
		writeError(c, err)
		return
	}

	d, err := session(c).AttachReference(c.Param("id"), img)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, DishResponse{Dish: d})
}

var errTooLarge = errors.New("upload too large")

func (s *Server) readMultipartImage(c *gin.Context) (imagedata.Image, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		return imagedata.Image{}, fmt.Errorf("%w: no image file provided", imagedata.ErrEmpty)
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		return imagedata.Image{}, errTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		s.log.Error("Failed to read upload", zap.Error(err))
		return imagedata.Image{}, err
	}
	if int64(len(data)) > s.maxUpload {
		return imagedata.Image{}, errTooLarge
	}
	return imagedata.Detect(data)
}

func (s *Server) readDataURLImage(c *gin.Context) (imagedata.Image, error) {
	// base64 inflates the payload by a third; leave room for the JSON framing.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload*4/3+4096)

	var req referenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return imagedata.Image{}, errTooLarge
		}
		return imagedata.Image{}, fmt.Errorf("%w: %v", imagedata.ErrMalformed, err)
	}
	img, err := imagedata.Parse(req.Image)
	if err != nil {
		return imagedata.Image{}, err
	}
	if int64(len(img.Data)) > s.maxUpload {
		return imagedata.Image{}, errTooLarge
	}
	return imagedata.Detect(img.Data)
}

func (s *Server) removeReference(c *gin.Context) {
	d, err := session(c).RemoveReference(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, DishResponse{Dish: d})
}

// waitRequested reports whether the caller asked to block until the image
// is ready instead of receiving 202 and following the event feed.
func waitRequested(c *gin.Context) bool {
	switch strings.ToLower(c.Query("wait")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

type startFunc func(ctx context.Context, id string) (gallery.Dish, error)

func (s *Server) runImageRequest(c *gin.Context, start, block startFunc) {
	id := c.Param("id")

	if waitRequested(c) {
		d, err := block(context.WithoutCancel(c.Request.Context()), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, DishResponse{Dish: d})
		return
	}

	d, err := start(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, DishResponse{Dish: d})
}

func (s *Server) generate(c *gin.Context) {
	sess := session(c)
	s.runImageRequest(c, sess.StartGenerate, sess.Generate)
}

func (s *Server) enhance(c *gin.Context) {
	sess := session(c)
	s.runImageRequest(c, sess.StartEnhance, sess.Enhance)
}

func (s *Server) edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be JSON with an instruction field")
		return
	}

	sess := session(c)
	s.runImageRequest(c,
		func(ctx context.Context, id string) (gallery.Dish, error) {
			return sess.StartEdit(ctx, id, req.Instruction)
		},
		func(ctx context.Context, id string) (gallery.Dish, error) {
			return sess.Edit(ctx, id, req.Instruction)
		},
	)
}

func (s *Server) downloadImage(c *gin.Context) {
	img, filename, err := session(c).Download(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, img.MIMEType, img.Data)
}
