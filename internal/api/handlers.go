package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tatte-go/internal/imageio"
	"tatte-go/tatte"
)

type statusBody struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Info     string `json:"info,omitempty"`
}

func body(st tatte.ReturnStatus) statusBody {
	return statusBody{Code: st.Code.String(), Category: string(st.Code.Category()), Info: st.Info}
}

// httpStatus maps a return code to the HTTP response status.
func httpStatus(code tatte.ReturnCode) int {
	switch code.Category() {
	case tatte.CategoryNone:
		return http.StatusOK
	case tatte.CategoryInput:
		return http.StatusUnprocessableEntity
	case tatte.CategoryConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"engine":         s.engineName,
		"detection":      body(s.detect),
		"templates":      body(s.creation),
		"identification": body(s.identify),
	})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"major":           tatte.APIMajorVersion,
		"minor":           tatte.APIMinorVersion,
		"engine":          s.engineName,
		"implementations": tatte.Implementations(),
	})
}

func (s *Server) readImage(fh *multipart.FileHeader, typ tatte.ImageType) (tatte.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return tatte.Image{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload+1))
	if err != nil {
		return tatte.Image{}, err
	}
	if int64(len(data)) > s.maxUpload {
		return tatte.Image{}, fmt.Errorf("%s exceeds the upload limit", fh.Filename)
	}
	return imageio.DecodeBytes(data, fh.Filename, s.depth, typ)
}

func imageType(c *gin.Context) tatte.ImageType {
	if t := c.PostForm("type"); t != "" {
		return imageio.TypeFromName(t)
	}
	return tatte.Tattoo
}

func (s *Server) detectTattoo(c *gin.Context) {
	if !s.detect.OK() {
		c.JSON(httpStatus(s.detect.Code), gin.H{"status": body(s.detect)})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'image' is required"})
		return
	}
	img, err := s.readImage(fh, imageType(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	det, st := s.impl.DetectTattoo(img)
	if !st.OK() {
		log.Debugf("Detection on %s failed: %s", fh.Filename, st)
		c.JSON(httpStatus(st.Code), gin.H{"status": body(st)})
		return
	}
	if det.BoundingBoxes == nil {
		det.BoundingBoxes = []tatte.BoundingBox{}
	}
	c.JSON(http.StatusOK, gin.H{"status": body(st), "detection": det})
}

func (s *Server) identifyTattoo(c *gin.Context) {
	for _, st := range []tatte.ReturnStatus{s.creation, s.identify} {
		if !st.OK() {
			c.JSON(httpStatus(st.Code), gin.H{"status": body(st)})
			return
		}
	}

	k := s.defaultK
	if raw := c.PostForm("k"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a non-negative integer"})
			return
		}
		k = uint32(v)
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	files := append(form.File["images[]"], form.File["images"]...)
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'images[]' is required"})
		return
	}
	typ := imageType(c)
	images := make(tatte.MultiTattoo, 0, len(files))
	for _, fh := range files {
		img, err := s.readImage(fh, typ)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		images = append(images, img)
	}

	res, st := s.impl.CreateTemplate(images, tatte.Identification)
	if !st.OK() {
		c.JSON(httpStatus(st.Code), gin.H{"status": body(st)})
		return
	}
	cands, st := s.impl.IdentifyTemplate(res.Template, k)
	if !st.OK() {
		c.JSON(httpStatus(st.Code), gin.H{"status": body(st)})
		return
	}
	if cands == nil {
		cands = []tatte.Candidate{}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         body(st),
		"candidates":     cands,
		"bounding_boxes": res.Template.BoundingBoxes(),
		"quality":        res.Quality,
	})
}
