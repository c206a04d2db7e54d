package dispatch

import (
	"sort"

	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

func postStruct(p *models.Post) *xmlrpc.Struct {
	cats := p.Categories
	if cats == nil {
		cats = []string{}
	}
	return xmlrpc.NewStruct().
		Set("postid", xmlrpc.String(p.PostID)).
		Set("title", xmlrpc.String(p.Title)).
		Set("link", xmlrpc.String(p.Link)).
		Set("permaLink", xmlrpc.String(p.Permalink)).
		Set("description", xmlrpc.String(p.Description)).
		Set("dateCreated", xmlrpc.NewDateTime(p.DateCreated)).
		Set("post_status", xmlrpc.String(p.PostStatus)).
		Set("userid", xmlrpc.String(p.UserID)).
		Set("commentCount", xmlrpc.Int(p.CommentCount)).
		Set("categories", xmlrpc.Strings(cats))
}

func blogStruct(b models.BlogInfo) *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("blogid", xmlrpc.String(b.BlogID)).
		Set("blogName", xmlrpc.String(b.BlogName)).
		Set("url", xmlrpc.String(b.URL)).
		Set("isAdmin", xmlrpc.Boolean(b.IsAdmin))
}

func userStruct(u models.UserInfo) *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("userid", xmlrpc.String(u.UserID)).
		Set("nickname", xmlrpc.String(u.Nickname)).
		Set("firstname", xmlrpc.String(u.FirstName)).
		Set("lastname", xmlrpc.String(u.LastName)).
		Set("email", xmlrpc.String(u.Email)).
		Set("url", xmlrpc.String(u.URL))
}

func categoryStruct(c models.CategoryInfo) *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("categoryid", xmlrpc.String(c.CategoryID)).
		Set("title", xmlrpc.String(c.Title)).
		Set("description", xmlrpc.String(c.Description)).
		Set("htmlUrl", xmlrpc.String(c.HTMLURL)).
		Set("rssUrl", xmlrpc.String(c.RSSURL))
}

// mtCategoryStruct is the shape mt.getCategoryList clients expect
func mtCategoryStruct(c models.CategoryInfo) *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("categoryId", xmlrpc.String(c.CategoryID)).
		Set("categoryName", xmlrpc.String(c.Title))
}

func structArray[T any](items []T, conv func(T) *xmlrpc.Struct) xmlrpc.Array {
	arr := make(xmlrpc.Array, 0, len(items))
	for _, it := range items {
		arr = append(arr, conv(it))
	}
	return arr
}

// categoryNames reads a categories array; non-string entries are rejected
func categoryNames(arr xmlrpc.Array) ([]string, error) {
	names := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(xmlrpc.String)
		if !ok {
			return nil, &xmlrpc.FieldError{Field: "categories", Want: xmlrpc.KindString, Got: v.Kind(), Err: xmlrpc.ErrWrongType}
		}
		names = append(names, string(s))
	}
	return names, nil
}

// newestFirst orders posts by creation date, ties broken by id
func newestFirst(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].DateCreated.Equal(posts[j].DateCreated) {
			return posts[i].PostID > posts[j].PostID
		}
		return posts[i].DateCreated.After(posts[j].DateCreated)
	})
}
