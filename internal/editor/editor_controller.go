package editor

import (
	"errors"
	"io"
	"net/http"
	"portfolio-site/internal/api"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/database"
	"portfolio-site/internal/environment"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/media"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Api defines the admin content editor endpoints.
//
// @Summary Content editor API
type Api interface {

	// GetEditorSession returns the operator's editing session
	GetEditorSession(c *gin.Context)

	// SwitchTab starts a blank draft of another content type
	SwitchTab(c *gin.Context)

	// LoadRecord loads an existing record of the active content type for editing
	LoadRecord(c *gin.Context)

	// ResetDraft clears the draft and the target id
	ResetDraft(c *gin.Context)

	// EditDraft sets fields of the draft
	EditDraft(c *gin.Context)

	// SelectTags replaces the tag selection
	SelectTags(c *gin.Context)

	// ToggleTag selects or deselects a single tag
	ToggleTag(c *gin.Context)

	// SaveDraft inserts or updates the record and replaces its tags
	SaveDraft(c *gin.Context)

	// AttachImage uploads an image into the draft's image field
	AttachImage(c *gin.Context)

	// UploadImage uploads an image for a rich text body and returns its URL
	UploadImage(c *gin.Context)

	// GetTags returns all tags
	GetTags(c *gin.Context)

	// CreateTag adds a tag and returns all tags
	CreateTag(c *gin.Context)
}

type Controller struct {
	*environment.Env
	Workspace *Workspace
	Tags      *TagService
	// MaxUploadBytes limits the size of an attached image
	MaxUploadBytes int64
}

// ensure Controller implements Api
var _ Api = &Controller{}

// statusOf maps editor and store errors onto HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrSaved), errors.Is(err, ErrDraftChanged),
		errors.Is(err, ErrDuplicateTag), errors.Is(err, database.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrUnknownField), errors.Is(err, ErrInvalidField), errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrNotTagged), errors.Is(err, ErrEmptyTagName):
		return http.StatusUnprocessableEntity
	case errors.Is(err, media.ErrUpload):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (ec *Controller) session(c *gin.Context) (*Session, bool) {
	session, err := ec.Workspace.Session(auth.FromGin(c))
	if err != nil {
		c.AbortWithStatusJSON(statusOf(err), api.NewErrorResponse(err.Error()))
		return nil, false
	}
	return session, true
}

func (ec *Controller) readRequest(c *gin.Context) (api.GenericRequest, bool) {
	request := api.GenericRequest{}

	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		err = request.Load(body)
	}
	if err != nil {
		ec.LogErrorf(logging.GetLogTypeEditor(auth.FromGin(c).SessionID), "Error reading request: %v", err)
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponse("Error reading request"))
		return request, false
	}
	return request, true
}

// respond writes the session view, or the error together with the unchanged view
func respond(c *gin.Context, view View, message string, err error) {
	if err != nil {
		c.AbortWithStatusJSON(statusOf(err), api.NewGenericResponse(api.Error, err.Error(), view))
		return
	}
	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, message, view))
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("invalid id %q", c.Param("id")))
		return 0, false
	}
	return uint(id), true
}

// GetEditorSession
//
// @ID getEditorSession
// @Tags editor
// @Router /api/admin/editor [get]
// @Success 200 {object} api.RestJsonResponse{data=View}
func (ec *Controller) GetEditorSession(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	respond(c, session.Snapshot(), "", nil)
}

// SwitchTab
//
// @ID switchTab
// @Tags editor
// @Router /api/admin/editor/tab [post]
// @Param request body api.GenericRequest true "data.kind: blog, project or ctf"
// @Success 200 {object} api.RestJsonResponse{data=View}
func (ec *Controller) SwitchTab(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	request, ok := ec.readRequest(c)
	if !ok {
		return
	}

	var tab struct {
		Kind string `mapstructure:"kind"`
	}
	if err := request.DecodeDataTo(&tab); err != nil {
		respond(c, session.Snapshot(), "", errors.Join(ErrInvalidField, err))
		return
	}
	kind, err := ParseKind(tab.Kind)
	if err != nil {
		respond(c, session.Snapshot(), "", err)
		return
	}

	view, err := session.SwitchTab(kind)
	respond(c, view, "", err)
}

// LoadRecord
//
// @ID loadRecord
// @Tags editor
// @Router /api/admin/editor/load/{id} [post]
// @Param id path int true "Record id"
// @Success 200 {object} api.RestJsonResponse{data=View}
// @Failure 404 {object} api.RestJsonResponse{data=View}
func (ec *Controller) LoadRecord(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	view, err := session.Load(c.Request.Context(), id)
	respond(c, view, "", err)
}

// ResetDraft
//
// @ID resetDraft
// @Tags editor
// @Router /api/admin/editor/reset [post]
// @Success 200 {object} api.RestJsonResponse{data=View}
func (ec *Controller) ResetDraft(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	view, err := session.Reset()
	respond(c, view, "", err)
}

// EditDraft
//
// @ID editDraft
// @Tags editor
// @Router /api/admin/editor/draft [patch]
// @Param request body api.GenericRequest true "data: draft fields of the active content type"
// @Success 200 {object} api.RestJsonResponse{data=View}
// @Failure 422 {object} api.RestJsonResponse{data=View}
func (ec *Controller) EditDraft(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	request, ok := ec.readRequest(c)
	if !ok {
		return
	}

	view, err := session.Edit(request.Data)
	respond(c, view, "", err)
}

// SelectTags
//
// @ID selectTags
// @Tags editor
// @Router /api/admin/editor/tags [put]
// @Param request body api.GenericRequest true "data.tagIds"
// @Success 200 {object} api.RestJsonResponse{data=View}
func (ec *Controller) SelectTags(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	request, ok := ec.readRequest(c)
	if !ok {
		return
	}

	var selection struct {
		TagIds []uint `mapstructure:"tagIds"`
	}
	if err := request.DecodeDataTo(&selection); err != nil {
		respond(c, session.Snapshot(), "", errors.Join(ErrInvalidField, err))
		return
	}

	view, err := session.SelectTags(selection.TagIds)
	respond(c, view, "", err)
}

// ToggleTag
//
// @ID toggleTag
// @Tags editor
// @Router /api/admin/editor/tags/{id}/toggle [post]
// @Param id path int true "Tag id"
// @Success 200 {object} api.RestJsonResponse{data=View}
func (ec *Controller) ToggleTag(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	view, err := session.ToggleTag(id)
	respond(c, view, "", err)
}

// SaveDraft
//
// @ID saveDraft
// @Tags editor
// @Router /api/admin/editor/save [post]
// @Success 200 {object} api.RestJsonResponse{data=View}
// @Failure 409 {object} api.RestJsonResponse{data=View}
// @Failure 500 {object} api.RestJsonResponse{data=View}
func (ec *Controller) SaveDraft(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}

	view, err := session.Save(c.Request.Context())
	respond(c, view, "saved", err)
}

// AttachImage
//
// @ID attachImage
// @Tags editor
// @Router /api/admin/editor/image [post]
// @Accept multipart/form-data
// @Param file formData file true "Image"
// @Success 200 {object} api.RestJsonResponse{data=View}
// @Failure 502 {object} api.RestJsonResponse{data=View}
func (ec *Controller) AttachImage(c *gin.Context) {
	session, ok := ec.session(c)
	if !ok {
		return
	}

	file, ok := ec.formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	view, err := session.Attach(c.Request.Context(), file.File)
	respond(c, view, "", err)
}

// UploadImage
//
// @ID uploadImage
// @Tags editor
// @Router /api/admin/uploads [post]
// @Accept multipart/form-data
// @Param file formData file true "Image"
// @Success 200 {object} api.RestJsonResponse{data=UploadedImage}
// @Failure 502 {object} api.RestJsonResponse
func (ec *Controller) UploadImage(c *gin.Context) {
	file, ok := ec.formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	url, err := ec.Workspace.Upload(c.Request.Context(), auth.FromGin(c), file.File)
	if err != nil {
		c.AbortWithStatusJSON(statusOf(err), api.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", UploadedImage{Url: url}))
}

// UploadedImage is the location of an image stored for a rich text body
type UploadedImage struct {
	Url string `json:"url"`
}

type formFile struct {
	media.File
	io.Closer
}

// formImage opens the "file" part of a multipart request limited to MaxUploadBytes
func (ec *Controller) formImage(c *gin.Context) (formFile, bool) {
	if ec.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ec.MaxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("Error reading image: %v", err))
		return formFile{}, false
	}
	file, err := header.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.NewErrorResponsef("Error reading image: %v", err))
		return formFile{}, false
	}
	return formFile{File: media.File{Name: header.Filename, Content: file}, Closer: file}, true
}

// GetTags
//
// @ID getTags
// @Tags editor
// @Router /api/admin/tags [get]
// @Success 200 {object} api.RestJsonResponse{data=[]models.Tag}
func (ec *Controller) GetTags(c *gin.Context) {
	tags, err := ec.Tags.ListTags(c.Request.Context())
	if err != nil {
		ec.LogErrorf(logging.GetLogTypeContent(), "listing tags failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.NewErrorResponse("Error fetching tags"))
		return
	}
	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "", tags))
}

// CreateTag
//
// @ID createTag
// @Tags editor
// @Router /api/admin/tags [post]
// @Param request body api.GenericRequest true "data.name, data.isCategory"
// @Success 201 {object} api.RestJsonResponse{data=[]models.Tag}
// @Failure 409 {object} api.RestJsonResponse{data=string}
func (ec *Controller) CreateTag(c *gin.Context) {
	request, ok := ec.readRequest(c)
	if !ok {
		return
	}

	var tag struct {
		Name       string `mapstructure:"name"`
		IsCategory bool   `mapstructure:"isCategory"`
	}
	if err := request.DecodeDataTo(&tag); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, api.NewErrorResponsef("Error reading tag: %v", err))
		return
	}

	tags, err := ec.Tags.CreateTag(c.Request.Context(), tag.Name, tag.IsCategory)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			ec.LogErrorf(logging.GetLogTypeContent(), "creating tag failed: %v", err)
		}
		c.AbortWithStatusJSON(statusOf(err), api.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, api.NewGenericResponse(api.Success, "tag created", tags))
}
