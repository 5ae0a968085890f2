package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type removeMediaRequest struct {
	URL string `json:"url" binding:"required"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// uploadRejected answers a multipart body that could not be read.
func uploadRejected(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
		return
	}
	badRequest(c, err)
}

func (s *Server) signUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := s.users.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) signIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := s.users.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) signOut(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.users.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) me(c *gin.Context) {
	u, err := s.users.CurrentUser(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) listEntries(c *gin.Context) {
	order, err := models.ParseSortOrder(c.Query("sort"))
	if err != nil {
		badRequest(c, err)
		return
	}
	list, err := s.entries.List(c.Request.Context(), models.ListOptions{Order: order, Term: c.Query("q")})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) createEntry(c *gin.Context) {
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.entries.Create(c.Request.Context(), draft)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) getEntry(c *gin.Context) {
	e, err := s.entries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) updateEntry(c *gin.Context) {
	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	e, err := s.entries.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) deleteEntry(c *gin.Context) {
	confirmed := false
	if v := c.Query("confirm"); v != "" {
		var err error
		if confirmed, err = strconv.ParseBool(v); err != nil {
			badRequest(c, fmt.Errorf("confirm: %w", err))
			return
		}
	}
	if err := s.entries.Delete(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) attachMedia(c *gin.Context) {
	files, err := s.readUploads(c)
	if err != nil {
		uploadRejected(c, err)
		return
	}
	e, err := s.entries.AttachMedia(c.Request.Context(), c.Param("id"), files)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) uploadMedia(c *gin.Context) {
	files, err := s.readUploads(c)
	if err != nil {
		uploadRejected(c, err)
		return
	}
	media, err := s.media.Upload(c.Request.Context(), files)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"media": media})
}

func (s *Server) removeMedia(c *gin.Context) {
	var req removeMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.media.Remove(c.Request.Context(), req.URL); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Bounds of a whole multipart batch: maxBatchFiles parts of MaxUploadBytes
// each plus room for part headers.
const (
	maxBatchFiles    = 20
	multipartOverhead = 1 << 20
)

func (s *Server) maxBatchBytes() int64 {
	return s.opts.MaxUploadBytes*maxBatchFiles + multipartOverhead
}

// readUploads reads the "files" parts of a multipart form in order. Each part
// is read up to one byte past the size limit so oversized files are still
// reported as such.
func (s *Server) readUploads(c *gin.Context) ([]services.UploadFile, error) {
	if s.opts.MaxUploadBytes > 0 {
		limit := s.maxBatchBytes()
		if c.Request.ContentLength > limit {
			return nil, &http.MaxBytesError{Limit: limit}
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("multipart form: %w", err)
	}
	headers := form.File["files"]
	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := s.readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, services.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if s.opts.MaxUploadBytes > 0 {
		r = io.LimitReader(f, s.opts.MaxUploadBytes+1)
	}
	return io.ReadAll(r)
}
