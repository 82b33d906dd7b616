// Package pathapi REST API учебной программы: дерево классов и промпты
// глав по паре класс/предмет.
package pathapi

import (
	"context"
	"encoding/json"

	"github.com/Spok95/curriculum-sync/internal/ingest"
	"github.com/Spok95/curriculum-sync/internal/source"
)

type subChapterDTO struct {
	Title string `json:"title"`
}

type chapterDTO struct {
	Title       string          `json:"title"`
	SubChapters []subChapterDTO `json:"subchapters"`
}

type subjectDTO struct {
	Name     string       `json:"name"`
	Chapters []chapterDTO `json:"chapters"`
}

type classroomDTO struct {
	Name     string       `json:"name"`
	Subjects []subjectDTO `json:"subjects"`
}

type classroomsData struct {
	Classrooms []classroomDTO `json:"classrooms"`
}

type promptSubChapterDTO struct {
	ID      any             `json:"id"`
	Title   string          `json:"title"`
	Prompts json.RawMessage `json:"prompts"`
}

type promptChapterDTO struct {
	ID          any                   `json:"id"`
	Title       string                `json:"title"`
	Prompts     json.RawMessage       `json:"prompts"`
	SubChapters []promptSubChapterDTO `json:"subChapters"`
}

type promptsData struct {
	Chapters []promptChapterDTO `json:"chapters"`
}

type Client struct {
	http          *source.Client
	classroomsURL string
	promptsURL    string
}

func New(c *source.Client, classroomsURL, promptsURL string) *Client {
	return &Client{http: c, classroomsURL: classroomsURL, promptsURL: promptsURL}
}

// FetchClassrooms всё дерево класс -> предмет -> глава -> подглава.
func (c *Client) FetchClassrooms(ctx context.Context) ([]ingest.RawNode, error) {
	var data classroomsData
	if err := c.http.GetEnvelope(ctx, c.classroomsURL, &data); err != nil {
		return nil, err
	}
	if data.Classrooms == nil {
		return nil, &source.FetchError{Source: c.http.Name(), URL: c.classroomsURL, StatusCode: 200, Reason: "missing data.classrooms"}
	}

	out := make([]ingest.RawNode, 0, len(data.Classrooms))
	for _, cl := range data.Classrooms {
		node := ingest.RawNode{Name: cl.Name}
		for _, s := range cl.Subjects {
			sn := ingest.RawNode{Name: s.Name}
			for _, ch := range s.Chapters {
				cn := ingest.RawNode{Name: ch.Title}
				for _, sc := range ch.SubChapters {
					cn.Children = append(cn.Children, ingest.RawNode{Name: sc.Title})
				}
				sn.Children = append(sn.Children, cn)
			}
			node.Children = append(node.Children, sn)
		}
		out = append(out, node)
	}
	return out, nil
}

type promptsRequest struct {
	Classroom string `json:"classroom"`
	Subject   string `json:"subject"`
}

// FetchPrompts главы предмета с промптами; подглавы вложены в главы.
func (c *Client) FetchPrompts(ctx context.Context, classroom, subject string) ([]ingest.RawNode, error) {
	var data promptsData
	if err := c.http.PostEnvelope(ctx, c.promptsURL, promptsRequest{Classroom: classroom, Subject: subject}, &data); err != nil {
		return nil, err
	}
	if data.Chapters == nil {
		return nil, &source.FetchError{Source: c.http.Name(), URL: c.promptsURL, StatusCode: 200, Reason: "missing data.chapters"}
	}

	out := make([]ingest.RawNode, 0, len(data.Chapters))
	for _, ch := range data.Chapters {
		node := ingest.RawNode{Name: ch.Title, Payload: nullable(ch.Prompts)}
		for _, sc := range ch.SubChapters {
			node.Children = append(node.Children, ingest.RawNode{Name: sc.Title, Payload: nullable(sc.Prompts)})
		}
		out = append(out, node)
	}
	return out, nil
}

func nullable(p json.RawMessage) json.RawMessage {
	if len(p) == 0 || string(p) == "null" {
		return nil
	}
	return p
}
