package dispatch

import (
	"context"
	"errors"
	"sort"

	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/models"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/builder/xmlrpc"
)

// authenticate checks the username/password pair at positions i and i+1
func (d *Dispatcher) authenticate(ctx context.Context, p Params, i int) (string, error) {
	user, password, err := p.Credentials(i)
	if err != nil {
		return "", err
	}
	if err := d.auth.Authenticate(ctx, user, password); err != nil {
		return "", err
	}
	d.logger.Debug("user authenticated", "user", user)
	return user, nil
}

// authenticateOptional is for listing methods whose credentials clients may omit
func (d *Dispatcher) authenticateOptional(ctx context.Context, p Params, i int) error {
	if p.Len() < i+2 {
		return nil
	}
	_, err := d.authenticate(ctx, p, i)
	return err
}

// blogger.getUsersBlogs(appKey, username, password)
func (d *Dispatcher) getUsersBlogs(ctx context.Context, p Params) (xmlrpc.Value, error) {
	if err := d.authenticateOptional(ctx, p, 1); err != nil {
		return nil, err
	}
	blogs := directory.Default().Blogs
	if d.directory != nil {
		blogs = d.directory.Blogs()
	}
	return structArray(blogs, blogStruct), nil
}

// blogger.getUserInfo(appKey, username, password)
func (d *Dispatcher) getUserInfo(ctx context.Context, p Params) (xmlrpc.Value, error) {
	user, err := d.authenticate(ctx, p, 1)
	if err != nil {
		return nil, err
	}
	info := models.UserInfo{UserID: user, Nickname: user}
	if d.directory != nil {
		if u, ok := d.directory.User(user); ok {
			info = u
		}
	}
	return userStruct(info), nil
}

// metaWeblog.getRecentPosts(blogid, username, password, numberOfPosts)
// returns every post; the count is not applied.
func (d *Dispatcher) getRecentPosts(ctx context.Context, p Params) (xmlrpc.Value, error) {
	if err := d.authenticateOptional(ctx, p, 1); err != nil {
		return nil, err
	}
	posts, err := d.posts.All()
	if err != nil {
		return nil, err
	}
	newestFirst(posts)
	return structArray(posts, postStruct), nil
}

// metaWeblog.newPost(blogid, username, password, struct, publish)
func (d *Dispatcher) newPost(ctx context.Context, p Params) (xmlrpc.Value, error) {
	user, err := d.authenticate(ctx, p, 1)
	if err != nil {
		return nil, err
	}
	fields, err := p.Struct(3)
	if err != nil {
		return nil, err
	}
	publish, err := p.Bool(4)
	if err != nil {
		return nil, err
	}

	in := store.CreateInput{UserID: user, Published: publish}
	if in.Title, err = fields.RequireString("title"); err != nil {
		return nil, p.field(3, err)
	}
	if in.Description, err = fields.RequireString("description"); err != nil {
		return nil, p.field(3, err)
	}
	if in.Categories, err = optionalCategories(fields); err != nil {
		return nil, p.field(3, err)
	}
	if created, ok, err := fields.LookupDateTime("dateCreated"); err != nil {
		return nil, p.field(3, err)
	} else if ok {
		in.CreatedAt = &created.Time
	}

	post, err := d.posts.Create(in)
	if err != nil {
		return nil, err
	}
	return xmlrpc.String(post.PostID), nil
}

func optionalCategories(fields *xmlrpc.Struct) ([]string, error) {
	arr, ok, err := fields.LookupArray("categories")
	if err != nil || !ok {
		return []string{}, err
	}
	return categoryNames(arr)
}

// metaWeblog.getPost(postid, username, password)
func (d *Dispatcher) getPost(ctx context.Context, p Params) (xmlrpc.Value, error) {
	id, err := p.String(0)
	if err != nil {
		return nil, err
	}
	if _, err := d.authenticate(ctx, p, 1); err != nil {
		return nil, err
	}

	post, err := d.posts.Get(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errPostNotFound(id)
	}
	return postStruct(post), nil
}

// metaWeblog.editPost(postid, username, password, struct, publish)
func (d *Dispatcher) editPost(ctx context.Context, p Params) (xmlrpc.Value, error) {
	id, err := p.String(0)
	if err != nil {
		return nil, err
	}
	if _, err := d.authenticate(ctx, p, 1); err != nil {
		return nil, err
	}
	fields, err := p.Struct(3)
	if err != nil {
		return nil, err
	}
	publish, err := p.Bool(4)
	if err != nil {
		return nil, err
	}

	in := store.EditInput{Published: publish}
	if title, ok, err := fields.LookupString("title"); err != nil {
		return nil, p.field(3, err)
	} else if ok {
		in.Title = &title
	}
	if desc, ok, err := fields.LookupString("description"); err != nil {
		return nil, p.field(3, err)
	} else if ok {
		in.Description = &desc
	}
	if arr, ok, err := fields.LookupArray("categories"); err != nil {
		return nil, p.field(3, err)
	} else if ok {
		if in.Categories, err = categoryNames(arr); err != nil {
			return nil, p.field(3, err)
		}
	}

	found, err := d.posts.Edit(id, in)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errPostNotFound(id)
	}
	return xmlrpc.Boolean(true), nil
}

// metaWeblog.deletePost / blogger.deletePost(appKey, postid, username, password, publish)
func (d *Dispatcher) deletePost(ctx context.Context, p Params) (xmlrpc.Value, error) {
	id, err := p.String(1)
	if err != nil {
		return nil, err
	}
	if _, err := d.authenticate(ctx, p, 2); err != nil {
		return nil, err
	}

	if err := d.posts.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errPostNotFound(id)
		}
		return nil, err
	}
	return xmlrpc.Boolean(true), nil
}

// categories merges configured seed categories with those used by posts
func (d *Dispatcher) categories() ([]models.CategoryInfo, error) {
	used, err := d.posts.CategoriesUsed()
	if err != nil {
		return nil, err
	}

	descriptions := make(map[string]string)
	if d.directory != nil {
		for _, c := range d.directory.SeedCategories() {
			descriptions[c.Name] = c.Description
		}
	}
	for _, name := range used {
		if _, ok := descriptions[name]; !ok {
			descriptions[name] = name
		}
	}

	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]models.CategoryInfo, 0, len(names))
	for _, name := range names {
		info := models.CategoryInfo{
			CategoryID:  name,
			Title:       name,
			Description: descriptions[name],
		}
		if d.links != nil {
			info.HTMLURL = d.links.CategoryURL(name)
			info.RSSURL = d.links.CategoryFeedURL(name)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// metaWeblog.getCategories(blogid, username, password)
func (d *Dispatcher) getCategories(ctx context.Context, p Params) (xmlrpc.Value, error) {
	if err := d.authenticateOptional(ctx, p, 1); err != nil {
		return nil, err
	}
	infos, err := d.categories()
	if err != nil {
		return nil, err
	}
	return structArray(infos, categoryStruct), nil
}

// mt.getCategoryList(blogid, username, password)
func (d *Dispatcher) getMTCategoryList(ctx context.Context, p Params) (xmlrpc.Value, error) {
	if err := d.authenticateOptional(ctx, p, 1); err != nil {
		return nil, err
	}
	infos, err := d.categories()
	if err != nil {
		return nil, err
	}
	return structArray(infos, mtCategoryStruct), nil
}

// metaWeblog.newMediaObject(blogid, username, password, struct{name, type, bits})
func (d *Dispatcher) newMediaObject(ctx context.Context, p Params) (xmlrpc.Value, error) {
	blogID, err := p.String(0)
	if err != nil {
		return nil, err
	}
	user, err := d.authenticate(ctx, p, 1)
	if err != nil {
		return nil, err
	}
	fields, err := p.Struct(3)
	if err != nil {
		return nil, err
	}

	up := media.Upload{BlogID: blogID, UserID: user}
	if up.Name, err = fields.RequireString("name"); err != nil {
		return nil, p.field(3, err)
	}
	if up.Type, err = fields.OptionalString("type", ""); err != nil {
		return nil, p.field(3, err)
	}
	if up.Data, err = fields.RequireBase64("bits"); err != nil {
		return nil, p.field(3, err)
	}

	info, err := d.media.Save(up)
	if err != nil {
		return nil, err
	}
	d.metrics.AddMediaBytes(len(up.Data))
	d.logger.Info("media stored", "hash", info.Hash, "name", info.Name, "bytes", len(up.Data))

	return xmlrpc.NewStruct().Set("url", xmlrpc.String(d.baseURL+info.URL)), nil
}
