package api_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/autonomind/autonomind-go/pkg/api"
)

var _ = Describe("UploadResponse", func() {
	Describe("DecodeUploadResponse", func() {
		It("decodes the acknowledgment and session id", func() {
			resp, err := api.DecodeUploadResponse([]byte(`{"message":"✅ ingested cat.png","session_id":"srv-1"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Message).To(Equal("✅ ingested cat.png"))
			Expect(resp.SessionID).To(Equal("srv-1"))
		})

		It("rejects malformed bodies", func() {
			_, err := api.DecodeUploadResponse([]byte(`{"message":`))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Images", func() {
		It("reads matches from similar_images", func() {
			resp, err := api.DecodeUploadResponse([]byte(
				`{"message":"ok","caption":"a cat","similar_images":[{"url":"/a.png","score":0.92},{"url":"/b.png","score":0.81}]}`))
			Expect(err).NotTo(HaveOccurred())

			images := resp.Images()
			Expect(images).To(HaveLen(2))
			Expect(images[0]).To(Equal(api.ImageResult{URL: "/a.png", Score: 0.92}))
			Expect(images[1]).To(Equal(api.ImageResult{URL: "/b.png", Score: 0.81}))
		})

		It("falls back to the results key", func() {
			resp, err := api.DecodeUploadResponse([]byte(
				`{"message":"ok","results":[{"url":"/c.png","score":0.5}]}`))
			Expect(err).NotTo(HaveOccurred())

			images := resp.Images()
			Expect(images).To(HaveLen(1))
			Expect(images[0].URL).To(Equal("/c.png"))
		})

		It("prefers similar_images when both keys are present", func() {
			resp, err := api.DecodeUploadResponse([]byte(
				`{"message":"ok","similar_images":[{"url":"/a.png","score":1}],"results":[{"url":"/b.png","score":1}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Images()).To(HaveLen(1))
			Expect(resp.Images()[0].URL).To(Equal("/a.png"))
		})

		It("returns nil when no matches came back", func() {
			resp, err := api.DecodeUploadResponse([]byte(`{"message":"ok"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Images()).To(BeNil())
		})
	})
})

var _ = Describe("ChatResult", func() {
	It("decodes an image result set with image_url keys", func() {
		var result api.ChatResult
		err := json.Unmarshal([]byte(
			`{"results":[{"image_url":"/a.png","score":0.92},{"image_url":"/b.png","score":0.81}],"description":"two cats"}`),
			&result)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Results).To(HaveLen(2))
		Expect(result.Results[0].URL).To(Equal("/a.png"))
		Expect(result.Results[0].Score).To(Equal(0.92))
		Expect(result.Description).To(Equal("two cats"))
	})

	It("decodes a bare error", func() {
		var result api.ChatResult
		Expect(json.Unmarshal([]byte(`{"error":"backend unavailable"}`), &result)).To(Succeed())
		Expect(result.Error).To(Equal("backend unavailable"))
	})
})

var _ = Describe("Mode", func() {
	It("accepts the four modes", func() {
		for _, m := range []api.Mode{api.ModeText, api.ModeVoice, api.ModeImage, api.ModeSearch} {
			Expect(m.Valid()).To(BeTrue(), string(m))
		}
	})

	It("rejects anything else", func() {
		Expect(api.Mode("video").Valid()).To(BeFalse())
		Expect(api.Mode("").Valid()).To(BeFalse())
	})
})
