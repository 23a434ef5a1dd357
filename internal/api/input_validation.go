package api

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/dailyvalue/internal/models"
	"github.com/terraincognita07/dailyvalue/internal/services"
)

const maxLabelImageBytes = 10 << 20

func dateParam(c *fiber.Ctx) (string, error) {
	return services.NormalizeDateKey(c.Params("date"))
}

func readLabelImage(header *multipart.FileHeader) (models.LabelImage, error) {
	if header.Size > maxLabelImageBytes {
		return models.LabelImage{}, fmt.Errorf("label image is %d bytes, limit is %d", header.Size, maxLabelImageBytes)
	}
	file, err := header.Open()
	if err != nil {
		return models.LabelImage{}, fmt.Errorf("open label image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLabelImageBytes+1))
	if err != nil {
		return models.LabelImage{}, fmt.Errorf("read label image: %w", err)
	}
	if len(data) > maxLabelImageBytes {
		return models.LabelImage{}, fmt.Errorf("label image exceeds %d bytes", maxLabelImageBytes)
	}

	return models.LabelImage{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
