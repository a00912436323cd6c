package api_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/autonomind/autonomind-go/pkg/api"
)

var _ = Describe("ClassifyMedia", func() {
	Context("with image types", func() {
		It("classifies the accepted image types", func() {
			for _, ct := range []string{"image/png", "image/jpeg", "image/gif", "image/webp"} {
				Expect(api.ClassifyMedia(ct)).To(Equal(api.MediaImage), ct)
			}
		})

		It("ignores media type parameters", func() {
			Expect(api.ClassifyMedia("image/png; charset=binary")).To(Equal(api.MediaImage))
		})

		It("is case-insensitive on the type", func() {
			Expect(api.ClassifyMedia("IMAGE/PNG")).To(Equal(api.MediaImage))
		})
	})

	Context("with document types", func() {
		It("classifies PDFs as documents", func() {
			Expect(api.ClassifyMedia("application/pdf")).To(Equal(api.MediaDocument))
		})
	})

	Context("with audio types", func() {
		It("classifies the accepted audio types", func() {
			for _, ct := range []string{"audio/wav", "audio/x-wav", "audio/webm", "audio/mpeg"} {
				Expect(api.ClassifyMedia(ct)).To(Equal(api.MediaAudio), ct)
			}
		})
	})

	Context("with anything else", func() {
		It("classifies unknown types as other", func() {
			Expect(api.ClassifyMedia("video/mp4")).To(Equal(api.MediaOther))
			Expect(api.ClassifyMedia("text/plain")).To(Equal(api.MediaOther))
		})

		It("classifies the empty type as other", func() {
			Expect(api.ClassifyMedia("")).To(Equal(api.MediaOther))
		})

		It("does not classify by file extension lookalikes", func() {
			// Declared type decides, never the name.
			Expect(api.ClassifyMedia("cat.png")).To(Equal(api.MediaOther))
		})
	})
})
