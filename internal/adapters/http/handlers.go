package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/translate"
)

// handleTranslate exposes the translation client over plain HTTP, same
// contract the websocket delivery path uses internally.
func handleTranslate(tr core.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req translate.Request
		if err := c.ShouldBindJSON(&req); err != nil || req.InputText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "input text is empty"})
			return
		}
		dest := domain.NormalizeLanguage(req.Dest, domain.DefaultLanguage)
		res, err := tr.Translate(c.Request.Context(), req.InputText, dest)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("translate endpoint")
			c.JSON(http.StatusBadGateway, gin.H{"error": "translation unavailable"})
			return
		}
		c.JSON(http.StatusOK, translate.Response{
			TranslatedText:   res.Text,
			Pronunciation:    res.Pronunciation,
			DetectedLanguage: string(res.Detected),
		})
	}
}

func handleRooms(reg *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms := reg.Rooms()
		type roomView struct {
			core.RoomInfo
			Members []core.MemberDTO `json:"members"`
		}
		out := make([]roomView, 0, len(rooms))
		for _, info := range rooms {
			out = append(out, roomView{RoomInfo: info, Members: reg.MembersSnapshot(info.Name)})
		}
		c.JSON(http.StatusOK, gin.H{"rooms": out})
	}
}
